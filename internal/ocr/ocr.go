// Package ocr turns uploaded evidence documents into plain text.
package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/config"
)

// Extractor extracts text content from a document on disk.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NewExtractor creates a Router whose PDF and image backend is chosen by
// cfg.Provider. Plain text files are always read directly.
func NewExtractor(cfg config.OCRConfig, mistralKey string) (*Router, error) {
	r := &Router{text: PlainText{}}
	switch cfg.Provider {
	case "local", "":
		r.pdf = NewPdfToText(cfg.PdfToTextPath)
	case "mistral":
		if mistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		m := NewMistralOCR(mistralKey, cfg.MistralModel)
		r.pdf = m
		r.image = m
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
	return r, nil
}

// Router dispatches on file extension.
type Router struct {
	text  Extractor
	pdf   Extractor
	image Extractor
}

// ExtractText implements Extractor.
func (r *Router) ExtractText(ctx context.Context, path string) (string, error) {
	var ext Extractor
	switch kind := strings.ToLower(filepath.Ext(path)); kind {
	case ".txt", ".md", ".text":
		ext = r.text
	case ".pdf":
		ext = r.pdf
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".webp":
		ext = r.image
	default:
		return "", eris.Errorf("ocr: unsupported file type %q", kind)
	}
	if ext == nil {
		return "", eris.Errorf("ocr: no extractor configured for %s", filepath.Base(path))
	}
	return ext.ExtractText(ctx, path)
}

// ExtractOrEmpty runs ext and reports any failure as an empty string, which
// the engine rejects as having no extracted text.
func ExtractOrEmpty(ctx context.Context, ext Extractor, path string) string {
	text, err := ext.ExtractText(ctx, path)
	if err != nil {
		zap.L().Warn("ocr: extraction failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return text
}

// PlainText reads text files as-is.
type PlainText struct{}

// ExtractText implements Extractor.
func (PlainText) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read %s", path)
	}
	return string(data), nil
}
