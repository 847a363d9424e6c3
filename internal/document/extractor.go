package document

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nikhilbhutani/notiflex/internal/config"
	"github.com/nikhilbhutani/notiflex/pkg/docmeta"
	"github.com/nikhilbhutani/notiflex/pkg/textextract"
)

type Method string

const (
	MethodPDFText  Method = "pdf-text"
	MethodPDFOCR   Method = "pdf-ocr"
	MethodImageOCR Method = "image-ocr"
	MethodNone     Method = "none"
)

// Result is the outcome of one extraction. Text is "" when nothing usable
// was found; extraction failures never surface as errors.
type Result struct {
	Text     string
	Method   Method
	Language string
	Pages    int
	Duration time.Duration
}

// Significant reports whether Text is long enough for metadata inference.
func (r Result) Significant() bool {
	return docmeta.IsSignificant(r.Text)
}

type TextExtractor interface {
	// Extract works on an in-memory upload. Scanned PDFs are not OCRed here.
	Extract(ctx context.Context, data []byte, mediaType string) Result
	// ExtractFile works on a file on disk and rasterizes scanned PDFs for OCR.
	ExtractFile(ctx context.Context, path, mediaType string) Result
}

type extractor struct {
	ocr        Recognizer
	rasterizer Rasterizer
	primary    string
	fallback   string
	maxPages   int
	logger     *slog.Logger
}

func NewTextExtractor(ocr Recognizer, rasterizer Rasterizer, cfg config.OCRConfig, logger *slog.Logger) TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	primary, fallback := cfg.PrimaryLang, cfg.FallbackLang
	if primary == "" {
		primary = "ind"
	}
	if fallback == "" {
		fallback = "eng"
	}
	return &extractor{
		ocr:        ocr,
		rasterizer: rasterizer,
		primary:    primary,
		fallback:   fallback,
		maxPages:   max(cfg.MaxPages, 1),
		logger:     logger.With("component", "extractor"),
	}
}

func (e *extractor) Extract(ctx context.Context, data []byte, mediaType string) Result {
	start := time.Now()

	var res Result
	switch {
	case textextract.IsPDF(mediaType):
		res = e.pdfText(data)
		if res.Method == MethodPDFText && !res.Significant() {
			e.logger.Warn("pdf has no usable text layer", "pages", res.Pages, "chars", len(res.Text))
		}
	case isImage(mediaType):
		res = e.image(ctx, func(lang string) (string, error) {
			return e.ocr.Recognize(ctx, data, lang)
		})
	default:
		res = Result{Method: MethodNone}
	}

	res.Duration = time.Since(start)
	e.log(res, mediaType)
	return res
}

func (e *extractor) ExtractFile(ctx context.Context, path, mediaType string) Result {
	start := time.Now()

	var res Result
	switch {
	case textextract.IsPDF(mediaType):
		res = e.pdfFile(ctx, path)
	case isImage(mediaType):
		res = e.image(ctx, func(lang string) (string, error) {
			return e.ocr.RecognizeFile(ctx, path, lang)
		})
	default:
		res = Result{Method: MethodNone}
	}

	res.Duration = time.Since(start)
	e.log(res, mediaType)
	return res
}

func (e *extractor) pdfText(data []byte) Result {
	extracted, err := textextract.PDF(data)
	if err != nil {
		e.logger.Warn("pdf text extraction failed", "error", err)
		return Result{Method: MethodNone}
	}
	if extracted.Skipped > 0 {
		e.logger.Debug("pdf pages skipped", "skipped", extracted.Skipped, "pages", extracted.Pages)
	}
	return Result{Text: extracted.Content, Method: MethodPDFText, Pages: extracted.Pages}
}

func (e *extractor) pdfFile(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("read pdf failed", "path", path, "error", err)
		return Result{Method: MethodNone}
	}

	res := e.pdfText(data)
	if res.Significant() {
		return res
	}

	pages := res.Pages
	if n, err := textextract.PageCount(data); err == nil {
		pages = n
	}
	pages = min(max(pages, 1), e.maxPages)

	dir, err := os.MkdirTemp("", "notiflex-ocr-*")
	if err != nil {
		e.logger.Warn("create raster dir failed", "error", err)
		return res
	}
	defer os.RemoveAll(dir)

	images, err := e.rasterizer.Rasterize(ctx, path, dir, pages)
	if err != nil {
		e.logger.Warn("rasterize pdf failed", "path", path, "error", err)
		if len(images) == 0 {
			return res
		}
	}

	var parts []string
	lang := e.primary
	for _, img := range images {
		page := e.image(ctx, func(l string) (string, error) {
			return e.ocr.RecognizeFile(ctx, img, l)
		})
		if page.Text != "" {
			parts = append(parts, page.Text)
			lang = page.Language
		}
	}
	if len(parts) == 0 {
		return res
	}

	return Result{
		Text:     strings.Join(parts, "\n"),
		Method:   MethodPDFOCR,
		Language: lang,
		Pages:    len(images),
	}
}

// image runs OCR with the primary language and retries once with the
// fallback language when the primary output is insignificant.
func (e *extractor) image(ctx context.Context, recognize func(lang string) (string, error)) Result {
	text, err := recognize(e.primary)
	if err != nil {
		e.logger.Warn("ocr failed", "lang", e.primary, "error", err)
		text = ""
	}
	if docmeta.IsSignificant(text) {
		return Result{Text: text, Method: MethodImageOCR, Language: e.primary, Pages: 1}
	}
	if ctx.Err() != nil {
		return Result{Text: text, Method: MethodImageOCR, Language: e.primary, Pages: 1}
	}

	retry, err := recognize(e.fallback)
	if err != nil {
		e.logger.Warn("ocr failed", "lang", e.fallback, "error", err)
		retry = ""
	}
	if strings.TrimSpace(retry) != "" {
		return Result{Text: retry, Method: MethodImageOCR, Language: e.fallback, Pages: 1}
	}
	return Result{Text: text, Method: MethodImageOCR, Language: e.primary, Pages: 1}
}

func (e *extractor) log(res Result, mediaType string) {
	e.logger.Debug("text extracted",
		"media_type", mediaType,
		"method", res.Method,
		"lang", res.Language,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}
