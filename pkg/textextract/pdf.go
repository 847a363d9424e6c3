package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrMalformedPDF = errors.New("malformed pdf")

type ExtractedText struct {
	Content string
	Pages   int
	// TextPages counts pages that produced non-blank text, Skipped those
	// whose content stream could not be read at all.
	TextPages int
	Skipped   int
}

// PDF reads the text layer of every page. Pages whose content stream cannot
// be decoded are skipped. A panic inside the PDF reader is reported as
// ErrMalformedPDF.
func PDF(data []byte) (result *ExtractedText, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrMalformedPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	c := pageCollector{total: reader.NumPage()}
	for i := 1; i <= c.total; i++ {
		c.add(readPage(reader.Page(i)))
	}
	return c.result(), nil
}

var errNullPage = errors.New("null page object")

func readPage(p pdf.Page) (string, error) {
	if p.V.IsNull() {
		return "", errNullPage
	}
	return p.GetPlainText(nil)
}

// pageCollector joins page texts in order, one trailing newline per
// readable page.
type pageCollector struct {
	buf       strings.Builder
	total     int
	textPages int
	skipped   int
}

func (c *pageCollector) add(text string, err error) {
	if err != nil {
		c.skipped++
		return
	}
	if strings.TrimSpace(text) != "" {
		c.textPages++
	}
	c.buf.WriteString(text)
	c.buf.WriteByte('\n')
}

func (c *pageCollector) result() *ExtractedText {
	return &ExtractedText{
		Content:   c.buf.String(),
		Pages:     c.total,
		TextPages: c.textPages,
		Skipped:   c.skipped,
	}
}

// PageCount validates the document structure and returns its page count.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("count PDF pages: %w", err)
	}
	return n, nil
}

func IsPDF(mediaType string) bool {
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/pdf")
}
