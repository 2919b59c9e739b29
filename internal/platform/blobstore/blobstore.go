// Package blobstore stores complaint attachments. Files are validated by
// extension, declared content type and sniffed content, capped in size and
// written under a generated name that is served back from /uploads.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("Only images and PDFs are allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrNotFound           = errors.New("attachment not found")
)

// DefaultMaxFileSize is the attachment cap (10 MiB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// allowedTypes maps accepted extensions to their content type.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// Attachment describes a stored file.
type Attachment struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store persists attachments.
type Store interface {
	Save(ctx context.Context, fileName, contentType string, content io.Reader) (*Attachment, error)
	Delete(ctx context.Context, name string) error
}

// Validate checks the original file name and declared content type.
func Validate(fileName, contentType string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", ErrMissingFileName
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", ErrInvalidContentType
	}
	declared := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if declared != want {
		return "", ErrInvalidContentType
	}
	return ext, nil
}

// readValidated reads at most maxSize bytes of content and verifies the
// sniffed type matches the extension.
func readValidated(fileName, contentType string, content io.Reader, maxSize int64) ([]byte, string, error) {
	ext, err := Validate(fileName, contentType)
	if err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read attachment: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}
	if sniffed := http.DetectContentType(data); sniffed != allowedTypes[ext] {
		return nil, "", ErrInvalidContentType
	}
	return data, ext, nil
}

// GenerateName returns "<unix-millis>-<random><ext>".
func GenerateName(now time.Time, ext string) string {
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), rand.Int63n(1_000_000_000), ext)
}

// DiskStore writes attachments into a directory served as static files.
type DiskStore struct {
	dir        string
	publicPath string
	maxSize    int64
	now        func() time.Time
}

// NewDiskStore creates dir if needed. publicPath is the URL prefix the
// directory is served under, normally "/uploads".
func NewDiskStore(dir, publicPath string, maxSize int64) (*DiskStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, publicPath: strings.TrimRight(publicPath, "/"), maxSize: maxSize, now: time.Now}, nil
}

func (s *DiskStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (*Attachment, error) {
	data, ext, err := readValidated(fileName, contentType, content, s.maxSize)
	if err != nil {
		return nil, err
	}

	name := GenerateName(s.now(), ext)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close attachment: %w", err)
	}

	return &Attachment{
		Name:        name,
		Path:        s.publicPath + "/" + name,
		ContentType: allowedTypes[ext],
		Size:        int64(len(data)),
	}, nil
}

// Delete removes a stored attachment by generated name.
func (s *DiskStore) Delete(_ context.Context, name string) error {
	if name != filepath.Base(name) {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// InMemoryStore keeps attachments in memory for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	files   map[string][]byte
	maxSize int64
}

func NewInMemoryStore(maxSize int64) *InMemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &InMemoryStore{files: make(map[string][]byte), maxSize: maxSize}
}

func (s *InMemoryStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (*Attachment, error) {
	data, ext, err := readValidated(fileName, contentType, content, s.maxSize)
	if err != nil {
		return nil, err
	}
	name := GenerateName(time.Now(), ext)

	s.mu.Lock()
	s.files[name] = data
	s.mu.Unlock()

	return &Attachment{Name: name, Path: "/uploads/" + name, ContentType: allowedTypes[ext], Size: int64(len(data))}, nil
}

func (s *InMemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return ErrNotFound
	}
	delete(s.files, name)
	return nil
}

// Len returns the number of stored files.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
