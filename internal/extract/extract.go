package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

var (
	documentExtensions = []string{".pdf"}
	imageExtensions    = []string{".png", ".jpg", ".jpeg", ".webp"}
)

// OCREngine turns a preprocessed image into text.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Extractor struct {
	parser parser.Parser
}

func NewExtractor(ctx context.Context, engine OCREngine) (*Extractor, error) {
	pdfParser, err := pdf.NewPDFParser(ctx, &pdf.Config{})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser: %w", err)
	}

	parsers := map[string]parser.Parser{}
	for _, ext := range documentExtensions {
		parsers[ext] = pdfParser
	}
	if engine != nil {
		imageParser := NewImageParser(engine)
		for _, ext := range imageExtensions {
			parsers[ext] = imageParser
		}
	}

	extParser, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers:        parsers,
		FallbackParser: unsupportedParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("create ext parser: %w", err)
	}

	return &Extractor{parser: extParser}, nil
}

// Supported reports whether path has an extension the extractor can read.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range append(append([]string{}, documentExtensions...), imageExtensions...) {
		if ext == e {
			return true
		}
	}
	return false
}

func AllowedExtensions() []string {
	return append(append([]string{}, documentExtensions...), imageExtensions...)
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", path, ErrUnsupportedFile)
	}
	if !Supported(path) {
		return "", fmt.Errorf("%s: %w", filepath.Ext(path), ErrUnsupportedFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	ext := filepath.Ext(path)
	uri := strings.TrimSuffix(path, ext) + strings.ToLower(ext)

	docs, err := e.parser.Parse(ctx, f, parser.WithURI(uri))
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	return joinDocuments(docs), nil
}

func joinDocuments(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if text := strings.TrimSpace(doc.Content); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

type unsupportedParser struct{}

func (unsupportedParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	return nil, ErrUnsupportedFile
}

// ImageParser runs OCR on image documents after preprocessing them.
type ImageParser struct {
	engine OCREngine
}

func NewImageParser(engine OCREngine) *ImageParser {
	return &ImageParser{engine: engine}
}

func (p *ImageParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	commonOpts := parser.GetCommonOptions(&parser.Options{}, opts...)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	prepared, err := preprocessBytes(data)
	if err != nil {
		return nil, err
	}

	text, err := p.engine.Recognize(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	return []*schema.Document{{
		ID:       commonOpts.URI,
		Content:  strings.TrimSpace(text),
		MetaData: map[string]any{"source": commonOpts.URI, "kind": "ocr"},
	}}, nil
}
