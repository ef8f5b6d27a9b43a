package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	imagesSubdir      = "images"
	itinerariesSubdir = "itineraries"
	uploadsSubdir     = "uploads"
	maxNameLength     = 120
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type LocalStorage struct {
	exportsDir string
	uploadsDir string
}

func NewLocalStorage(exportsDir, uploadsDir string) *LocalStorage {
	if uploadsDir == "" {
		uploadsDir = filepath.Join(exportsDir, uploadsSubdir)
	}
	return &LocalStorage{
		exportsDir: exportsDir,
		uploadsDir: uploadsDir,
	}
}

func (s *LocalStorage) ImagesDir() string {
	return filepath.Join(s.exportsDir, imagesSubdir)
}

func (s *LocalStorage) ItinerariesDir() string {
	return filepath.Join(s.exportsDir, itinerariesSubdir)
}

func (s *LocalStorage) UploadsDir() string {
	return s.uploadsDir
}

func (s *LocalStorage) EnsureDirectories() error {
	for _, dir := range []string{s.ImagesDir(), s.ItinerariesDir(), s.uploadsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SaveUpload stores r under a unique, sanitized name in the uploads dir.
func (s *LocalStorage) SaveUpload(name string, r io.Reader) (string, error) {
	clean := SecureName(name)
	if clean == "" {
		return "", ErrInvalidName
	}

	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(s.uploadsDir, fmt.Sprintf("%s_%s_%s", stamp, uuid.NewString()[:8], clean))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return path, nil
}

// ExportPath resolves a bare file name inside the itineraries dir. Names
// containing path separators are rejected.
func (s *LocalStorage) ExportPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return filepath.Join(s.ItinerariesDir(), name), nil
}

func (s *LocalStorage) ListExports() ([]string, error) {
	entries, err := os.ReadDir(s.ItinerariesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read itineraries directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// SecureName keeps the base name and replaces anything outside
// [a-zA-Z0-9._-] with underscores.
func SecureName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	clean := strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "._")
	if len(clean) > maxNameLength {
		ext := filepath.Ext(clean)
		clean = clean[:maxNameLength-len(ext)] + ext
	}
	return clean
}
