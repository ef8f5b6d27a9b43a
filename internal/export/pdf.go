package export

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	margin         = 18.0
	maxImageHeight = 85.0
	bodyLineHeight = 5.5
	author         = "travelops"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

type Image struct {
	Place string
	Path  string
}

type Document struct {
	Filename     string
	Title        string
	Itinerary    string
	Images       []Image
	Attributions []string
}

type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineDay
	linePlacesHeader
	lineBullet
	lineText
)

func classify(line string) (lineKind, string) {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)
	switch {
	case trimmed == "":
		return lineBlank, ""
	case strings.HasPrefix(lower, "day "):
		return lineDay, trimmed
	case strings.HasPrefix(lower, "places used"):
		return linePlacesHeader, trimmed
	case strings.HasPrefix(trimmed, "- "):
		return lineBullet, strings.TrimSpace(trimmed[2:])
	default:
		return lineText, strings.TrimRight(line, " \t")
	}
}

// CleanAttribution strips markup and brackets from a photo attribution.
func CleanAttribution(line string) string {
	line = strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(strings.TrimSpace(line))
	line = htmlTagPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

func (r *Renderer) Render(doc Document) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := filepath.Join(r.outputDir, doc.Filename)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(author, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "L", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr("Generated itinerary with photos from Google Places."), "", "L", false)
	pdf.Ln(4)

	heading(pdf, tr, "Itinerary")
	writeItinerary(pdf, tr, doc.Itinerary)

	if images := usableImages(doc.Images); len(images) > 0 {
		pdf.AddPage()
		heading(pdf, tr, "Place Photos")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr("Photos are selected from Google Places."), "", "L", false)
		pdf.Ln(4)
		writeImages(pdf, tr, images)
	}

	if len(doc.Attributions) > 0 {
		pdf.AddPage()
		heading(pdf, tr, "Photo Attributions")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr("From Google Places API (html cleaned)."), "", "L", false)
		pdf.Ln(4)
		pdf.SetFont("Courier", "", 9)
		for _, a := range doc.Attributions {
			if cleaned := CleanAttribution(a); cleaned != "" {
				pdf.MultiCell(0, 4.5, tr(cleaned), "", "L", false)
			}
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}
	return outPath, nil
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(0, 7, tr(text), "", "L", false)
	pdf.Ln(2)
}

func writeItinerary(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	for _, raw := range strings.Split(text, "\n") {
		kind, line := classify(raw)
		switch kind {
		case lineBlank:
			pdf.Ln(1.5)
		case lineDay:
			pdf.Ln(1.5)
			pdf.SetFont("Helvetica", "B", 10.5)
			pdf.MultiCell(0, bodyLineHeight, tr(line), "", "L", false)
		case linePlacesHeader:
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 10.5)
			pdf.MultiCell(0, bodyLineHeight, tr(line), "", "L", false)
		case lineBullet:
			pdf.SetFont("Helvetica", "", 10.5)
			pdf.MultiCell(0, bodyLineHeight, tr("    • "+line), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10.5)
			pdf.MultiCell(0, bodyLineHeight, tr(line), "", "L", false)
		}
	}
}

type sizedImage struct {
	Image
	format        string
	width, height int
}

// usableImages drops files that are missing or not decodable so one bad
// photo cannot fail the whole document.
func usableImages(images []Image) []sizedImage {
	var out []sizedImage
	for _, img := range images {
		cfg, format, err := decodeConfig(img.Path)
		if err != nil {
			slog.Warn("Skipping photo", "place", img.Place, "error", err)
			continue
		}
		out = append(out, sizedImage{Image: img, format: format, width: cfg.Width, height: cfg.Height})
	}
	return out
}

func decodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, "", err
	}
	if format != "jpeg" && format != "png" {
		return image.Config{}, "", fmt.Errorf("unsupported image format %s", format)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return image.Config{}, "", fmt.Errorf("empty image")
	}
	return cfg, format, nil
}

func writeImages(pdf *fpdf.Fpdf, tr func(string) string, images []sizedImage) {
	pageW, pageH := pdf.GetPageSize()
	maxW := pageW - 2*margin

	for _, img := range images {
		scale := min(maxW/float64(img.width), maxImageHeight/float64(img.height))
		w, h := float64(img.width)*scale, float64(img.height)*scale

		if pdf.GetY()+bodyLineHeight+h+6 > pageH-margin {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 10.5)
		pdf.MultiCell(0, bodyLineHeight, tr(img.Place), "", "L", false)
		pdf.Ln(1)

		opts := fpdf.ImageOptions{ImageType: imageType(img.format), ReadDpi: false}
		pdf.ImageOptions(img.Path, margin, pdf.GetY(), w, h, true, opts, 0, "")
		pdf.Ln(4)
	}
}

func imageType(format string) string {
	if format == "png" {
		return "PNG"
	}
	return "JPG"
}
