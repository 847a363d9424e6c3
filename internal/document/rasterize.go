package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	pdfdoc "github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
)

// Rasterizer renders PDF pages to image files inside dir and returns their paths
// in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, dir string, pages int) ([]string, error)
}

// PageRasterizer renders pages to PNG through ImageMagick.
type PageRasterizer struct {
	dpi int
}

func NewPageRasterizer(dpi int) *PageRasterizer {
	if dpi <= 0 {
		dpi = 300
	}
	return &PageRasterizer{dpi: dpi}
}

func (r *PageRasterizer) Rasterize(ctx context.Context, pdfPath, dir string, pages int) ([]string, error) {
	doc, err := pdfdoc.Open(pdfPath, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("open PDF for rendering: %w", err)
	}
	defer doc.Close()

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format:  string(pdfdoc.PNG),
		DPI:     r.dpi,
		Options: map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	paths := make([]string, 0, pages)
	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		page, err := doc.ExtractPage(n)
		if err != nil {
			return paths, fmt.Errorf("extract page %d: %w", n, err)
		}

		data, err := page.ToImage(renderer, nil)
		if err != nil {
			return paths, fmt.Errorf("render page %d: %w", n, err)
		}

		out := filepath.Join(dir, fmt.Sprintf("page-%03d.png", n))
		if err := os.WriteFile(out, data, 0o600); err != nil {
			return paths, fmt.Errorf("write page %d: %w", n, err)
		}
		paths = append(paths, out)
	}

	return paths, nil
}
