package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/zerr"
)

// extractDOCX reads the main document part of a DOCX archive and returns
// its paragraph text as a single page.
func (e *Extractor) extractDOCX(path string) (domain.Extraction, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return domain.Extraction{}, zerr.With(zerr.Wrap(err, "failed to open DOCX archive"), "path", path)
	}
	defer r.Close() //nolint:errcheck // Best effort close in defer

	var document io.ReadCloser
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			document, err = f.Open()
			if err != nil {
				return domain.Extraction{}, zerr.Wrap(err, "failed to open document part")
			}
			break
		}
	}
	if document == nil {
		return domain.Extraction{}, zerr.With(zerr.New("DOCX archive has no document part"), "path", path)
	}
	defer document.Close() //nolint:errcheck // Best effort close in defer

	text, err := documentText(document)
	if err != nil {
		return domain.Extraction{}, err
	}
	return domain.Extraction{
		Pages:    []string{text},
		Language: DetectLanguage(text),
	}, nil
}

// documentText walks the WordprocessingML stream: text runs accumulate
// into the current paragraph, closing w:p tags emit a line break.
func documentText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", zerr.Wrap(err, "failed to parse document part")
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
