package fs

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// titleWidth is the column width the section title is centered in.
const titleWidth = 80

// Section is one source document's contribution to the merged file.
type Section struct {
	Title string
	Text  string
}

// TitleLine centers the title in titleWidth columns; titles at least that
// wide pass through unchanged.
func TitleLine(title string) string {
	title = strings.TrimSpace(title)
	if len(title) >= titleWidth {
		return title
	}
	pad := titleWidth - len(title)
	left := pad / 2
	return strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left)
}

// RenderMerged renders the title-delimited merged document: sections in
// the given order, separated by blank lines, each opened by its centered
// title line.
func RenderMerged(sections []Section) string {
	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(TitleLine(section.Title))
		b.WriteByte('\n')
		b.WriteString(section.Text)
	}
	return b.String()
}

// WriteMerged writes the merged document to path, creating parent
// directories as needed.
func WriteMerged(path string, sections []Section) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, []byte(RenderMerged(sections)), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write merged document"), "path", path)
	}
	return nil
}
