// Package render implements the document renderer: generated markdown is
// either passed through or flattened to plain text with normalized
// paragraphs.
package render

import (
	"regexp"
	"strings"

	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DocumentRenderer = (*Renderer)(nil)

// Renderer implements ports.DocumentRenderer.
type Renderer struct{}

// New creates a renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render returns the document bytes for the requested format.
func (r *Renderer) Render(text string, format domain.DocFormat) ([]byte, error) {
	switch format {
	case domain.FormatMarkdown:
		return []byte(text), nil
	case domain.FormatText:
		flat := MarkdownToText(text)
		return []byte(strings.Join(NormalizeParagraphs(flat), "\n\n")), nil
	default:
		return nil, zerr.With(zerr.New("unknown document format"), "format", string(format))
	}
}

var (
	mdCodeBlockRE  = regexp.MustCompile("(?s)```.*?```")
	mdInlineCodeRE = regexp.MustCompile("`([^`]+)`")
	mdBoldRE       = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdItalicRE     = regexp.MustCompile(`(\*|_)([^*_]+?)(\*|_)`)
	mdHeadingRE    = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	mdBlockquoteRE = regexp.MustCompile(`^\s{0,3}>\s?`)
	mdBulletRE     = regexp.MustCompile(`^\s*[-*+]\s+`)
	mdRuleRE       = regexp.MustCompile(`^\s*([-*_]\s*){3,}$`)
	mdLinkRE       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	mdImageRE      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	mdHTMLTagRE    = regexp.MustCompile(`<[^>]+>`)
)

// MarkdownToText strips markdown structure down to readable plain text:
// code fences keep their content, links and images become "text (url)",
// bullets become •, rules are dropped.
func MarkdownToText(text string) string {
	if text == "" {
		return ""
	}

	stripped := mdCodeBlockRE.ReplaceAllStringFunc(text, func(block string) string {
		return strings.Trim(block, "`")
	})
	stripped = mdImageRE.ReplaceAllString(stripped, "$1 ($2)")
	stripped = mdLinkRE.ReplaceAllString(stripped, "$1 ($2)")
	stripped = mdInlineCodeRE.ReplaceAllString(stripped, "$1")
	stripped = mdBoldRE.ReplaceAllString(stripped, "$2")
	stripped = mdItalicRE.ReplaceAllString(stripped, "$2")

	var lines []string
	for line := range strings.Lines(stripped) {
		line = strings.TrimSpace(line)
		if line == "" {
			lines = append(lines, "")
			continue
		}
		if mdRuleRE.MatchString(line) {
			continue
		}
		line = mdHeadingRE.ReplaceAllString(line, "")
		line = mdBlockquoteRE.ReplaceAllString(line, "")
		line = mdBulletRE.ReplaceAllString(line, "• ")
		line = mdHTMLTagRE.ReplaceAllString(line, "")
		lines = append(lines, line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var (
	headerRE    = regexp.MustCompile(`^([一二三四五六七八九十]+、|\d+[\.、]|[（(][一二三四五六七八九十0-9]+[)）])`)
	labelLineRE = regexp.MustCompile(`^([^：\s]{1,8}：)(.*)$`)
)

// labelInlineMax is the longest label remainder kept on its own paragraph.
const labelInlineMax = 20

var paragraphEndings = []string{"。", "！", "？", "；", ":", "：", ".", "!", "?", ";"}

func endsParagraph(line string) bool {
	for _, ending := range paragraphEndings {
		if strings.HasSuffix(line, ending) {
			return true
		}
	}
	return false
}

func isStandaloneLine(line string) bool {
	if strings.HasSuffix(line, "：") || strings.HasSuffix(line, ":") {
		return true
	}
	if headerRE.MatchString(line) {
		return true
	}
	return strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")
}

// joinLines glues a wrapped line onto the current paragraph, inserting a
// space only between two ASCII alphanumerics so CJK text joins seamlessly.
func joinLines(prev, next string) string {
	if prev == "" {
		return next
	}
	tail := rune(prev[len(prev)-1])
	head := rune(next[0])
	if tail < 128 && head < 128 && isASCIIAlnum(byte(tail)) && isASCIIAlnum(byte(head)) {
		return prev + " " + next
	}
	return prev + next
}

func isASCIIAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// NormalizeParagraphs reflows raw extracted text into paragraphs: labels
// and standalone headers stay on their own, wrapped lines are joined until
// a sentence-ending rune closes the paragraph.
func NormalizeParagraphs(text string) []string {
	var paragraphs []string
	current := ""

	flush := func() {
		if current != "" {
			paragraphs = append(paragraphs, current)
			current = ""
		}
	}

	for rawLine := range strings.Lines(text) {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			flush()
			continue
		}

		if m := labelLineRE.FindStringSubmatch(line); m != nil {
			flush()
			rest := strings.TrimSpace(m[2])
			if rest == "" || endsParagraph(line) || len([]rune(rest)) <= labelInlineMax {
				paragraphs = append(paragraphs, line)
				continue
			}
			current = line
			if endsParagraph(current) {
				flush()
			}
			continue
		}

		if isStandaloneLine(line) {
			flush()
			paragraphs = append(paragraphs, line)
			continue
		}

		if current != "" && endsParagraph(current) {
			flush()
			current = line
		} else {
			current = joinLines(current, line)
		}
		if endsParagraph(current) {
			flush()
		}
	}
	flush()
	return paragraphs
}
