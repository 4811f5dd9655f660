package extract

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/docmill/internal/engine/scheduler"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
func (nopLogger) Error(error, ...any) {}

type nopVertex struct{}

func (nopVertex) Complete(error) {}
func (nopVertex) Cached()        {}

type nopTelemetry struct{}

func (nopTelemetry) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, nopVertex{}
}
func (nopTelemetry) Close() error { return nil }

// fakeRunner scripts the poppler tool invocations.
type fakeRunner struct {
	pages    int
	pageText map[int]string // pdftotext output per page
	fail     map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	if f.fail[name] {
		return nil, errors.New(name + " failed")
	}
	switch name {
	case "pdfinfo":
		return []byte("Title: doc\nPages: " + strconv.Itoa(f.pages) + "\nEncrypted: no\n"), nil
	case "pdftotext":
		page, _ := strconv.Atoi(args[1])
		return []byte(f.pageText[page]), nil
	case "pdftoppm":
		page := args[len(args)-3]
		return []byte("png-bytes-" + page), nil
	default:
		return nil, errors.New("unexpected command " + name)
	}
}

// fakeOCR maps rendered image bytes back to text.
type fakeOCR struct {
	texts map[string]string
	err   error
}

func (f *fakeOCR) Recognize(_ context.Context, image []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[string(image)], nil
}

func testPool() *scheduler.Pool {
	return scheduler.NewPool(scheduler.Options{Workers: 2, MaxRetries: 0, BaseDelay: 1}, nopLogger{}, nopTelemetry{})
}

func TestExtractPDF_TextLayer(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	e.run = &fakeRunner{
		pages: 2,
		pageText: map[int]string{
			1: "first page text\n\n",
			2: "second page text\n",
		},
	}

	got, err := e.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"first page text", "second page text"}, got.Pages)
	assert.Equal(t, "en", got.Language)
}

func TestExtractPDF_ScannedThroughOCR(t *testing.T) {
	ocr := &fakeOCR{texts: map[string]string{
		"png-bytes-1": "recognized page one",
		"png-bytes-2": "recognized page two",
		"png-bytes-3": "recognized page three",
	}}
	e := New(ocr, testPool(), nopLogger{})
	e.run = &fakeRunner{pages: 3, pageText: map[int]string{}}

	got, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"recognized page one",
		"recognized page two",
		"recognized page three",
	}, got.Pages)
}

func TestExtractPDF_ScannedWithoutOCR(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	e.run = &fakeRunner{pages: 2, pageText: map[int]string{}}

	got, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, got.Pages, "pages stay empty without OCR")
}

func TestExtractPDF_FailedPageStaysEmpty(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("service down")}
	e := New(ocr, testPool(), nopLogger{})
	e.run = &fakeRunner{pages: 2, pageText: map[int]string{}}

	got, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err, "page failures never fail the document")
	assert.Equal(t, []string{"", ""}, got.Pages)
}

func TestExtractPDF_InspectFailure(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	e.run = &fakeRunner{fail: map[string]bool{"pdfinfo": true}}

	_, err := e.Extract(context.Background(), "broken.pdf")
	assert.Error(t, err)
}

func TestExtractPDF_ZeroPages(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	e.run = &fakeRunner{pages: 0}

	got, err := e.Extract(context.Background(), "empty.pdf")
	require.NoError(t, err)
	assert.Empty(t, got.Pages)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	_, err := e.Extract(context.Background(), "data.xls")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtract_ImageWithoutOCR(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	_, err := e.Extract(context.Background(), "photo.jpg")
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestPageCount_NoMetadata(t *testing.T) {
	e := New(nil, testPool(), nopLogger{})
	e.run = &fixedRunner{out: "Title: doc\n"}

	_, err := e.pageCount(context.Background(), "doc.pdf")
	assert.Error(t, err)
}

type fixedRunner struct{ out string }

func (f *fixedRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return []byte(f.out), nil
}
