package extract

import (
	"strings"
	"unicode"
)

// minSampleChars is the sample size below which the plain majority rule
// applies instead of the ratio thresholds.
const minSampleChars = 100

// DetectLanguage classifies the dominant language of a text sample by
// counting Han, Kana and Latin characters. Mixed samples fall back to the
// plain majority among the three classes.
func DetectLanguage(text string) string {
	var han, kana, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case r >= 0x3040 && r <= 0x30ff:
			kana++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}

	total := han + kana + latin
	if total == 0 {
		return "en"
	}

	hanRatio := float64(han) / float64(total)
	kanaRatio := float64(kana) / float64(total)
	latinRatio := float64(latin) / float64(total)

	switch {
	case latinRatio > 0.8:
		return "en"
	case hanRatio > 0.5:
		return "zh-cn"
	case kanaRatio > 0.5:
		return "ja"
	}

	if total < minSampleChars {
		if han >= latin && han >= kana {
			return "zh-cn"
		}
		if kana >= latin && kana >= han {
			return "ja"
		}
		return "en"
	}

	// Large mixed sample: majority wins.
	if han >= latin && han >= kana {
		return "zh-cn"
	}
	if kana >= latin && kana >= han {
		return "ja"
	}
	return "en"
}

// languageSample picks the pages used for detection: later pages are more
// representative than front matter, so sampling starts deeper into longer
// documents.
func languageSample(pages []string) string {
	start := sampleStart(len(pages))
	var sample string
	for _, page := range pages[start:] {
		sample += page + "\n"
	}
	if strings.TrimSpace(sample) == "" {
		sample = ""
		for _, page := range pages {
			sample += page + "\n"
		}
	}
	return sample
}

func sampleStart(pageCount int) int {
	switch {
	case pageCount >= 5:
		return 4
	case pageCount >= 3:
		return 2
	case pageCount >= 2:
		return 1
	default:
		return 0
	}
}
