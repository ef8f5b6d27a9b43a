package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type Engine struct {
	languages []string
}

func New(languages ...string) *Engine {
	return &Engine{languages: languages}
}

// Recognize treats the image as a single uniform block of text.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
