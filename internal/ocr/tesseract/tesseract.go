// Package tesseract provides an OCR engine backed by libtesseract.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/receipt-extractor/internal/ocr"
)

// Engine wraps one gosseract client. Clients are not safe for concurrent use,
// so each image gets its own Engine.
type Engine struct {
	client *gosseract.Client
}

// New creates an English Tesseract engine.
func New(languages ...string) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	return &Engine{client: client}, nil
}

// Factory is an ocr.EngineFactory producing English engines.
func Factory(ctx context.Context) (ocr.Engine, error) {
	return LanguageFactory()(ctx)
}

// LanguageFactory returns an ocr.EngineFactory for the given traineddata
// languages, e.g. "eng", "hin".
func LanguageFactory(languages ...string) ocr.EngineFactory {
	return func(ctx context.Context) (ocr.Engine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		engine, err := New(languages...)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
}

// Recognize runs Tesseract over the image at path. Tesseract cannot be
// interrupted, so ctx is only checked before starting.
func (e *Engine) Recognize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.client.SetImage(path); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	return text, nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}
