package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	upscaleFactor    = 2
	binaryThreshold  = 160
	maxUpscaledWidth = 6000
)

// Preprocess prepares a scanned document for OCR: grayscale, 2x upscale,
// contrast stretch and a hard black/white threshold.
func Preprocess(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)

	bounds := gray.Bounds()
	width := bounds.Dx() * upscaleFactor
	if width > maxUpscaledWidth {
		width = maxUpscaledWidth
	}
	resized := imaging.Resize(gray, width, 0, imaging.Lanczos)

	return threshold(autoContrast(resized), binaryThreshold)
}

func autoContrast(img *image.NRGBA) *image.NRGBA {
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := uint8(float64(c.R-lo) * scale)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func threshold(img *image.NRGBA, level uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R >= level {
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		}
		return color.NRGBA{A: c.A}
	})
}

func preprocessBytes(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
