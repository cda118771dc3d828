// Package storage implements the on-disk artifact store for uploaded
// permission documents and generated offer letters.
package storage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"interndesk/internal/config"
	"interndesk/internal/middleware"
	"interndesk/internal/models"
)

const permissionSubdir = "permission_letters"

// Store persists and retrieves workflow artifacts. Paths handed out by the
// store are always relative to its roots; absolute paths never cross the
// service boundary.
type Store interface {
	// SaveUpload writes an applicant-submitted document and returns its
	// path relative to the upload root.
	SaveUpload(originalFilename string, content []byte) (string, error)
	// UploadPath resolves a stored relative path to an absolute path,
	// rejecting anything that escapes the upload root or is not on disk.
	UploadPath(relPath string) (string, error)
	// DeleteUpload removes an uploaded document. Used to back out a write
	// when record creation fails.
	DeleteUpload(relPath string) error
	// SaveGenerated writes a rendered offer letter under the generated root.
	SaveGenerated(filename string, content []byte) error
	// GeneratedPath resolves a letter filename to an absolute path,
	// rejecting anything that escapes the generated root.
	GeneratedPath(filename string) (string, error)
	// FindGenerated returns the first candidate filename present on disk.
	FindGenerated(candidates []string) (string, bool)
	// DeleteGenerated removes a letter file. It reports whether the file
	// existed before removal.
	DeleteGenerated(filename string) (bool, error)
}

type diskStore struct {
	uploadRoot    string
	generatedRoot string
}

// NewDiskStore returns a Store rooted at the configured upload and
// generated-letter directories.
func NewDiskStore(cfg *config.Config) Store {
	return &diskStore{
		uploadRoot:    cfg.UploadRoot,
		generatedRoot: cfg.GeneratedRoot,
	}
}

func (s *diskStore) SaveUpload(originalFilename string, content []byte) (string, error) {
	name := sanitizeFilename(originalFilename)
	if name == "" {
		name = "document.pdf"
	}
	// Timestamp prefix keeps concurrent submissions from clobbering each other.
	name = fmt.Sprintf("%d_%s", time.Now().UTC().UnixNano(), name)

	relPath := filepath.ToSlash(filepath.Join(permissionSubdir, name))
	absPath := filepath.Join(s.uploadRoot, permissionSubdir, name)

	if err := writeBytesToFile(absPath, content); err != nil {
		return "", models.NewStorageError("write", err)
	}
	middleware.ArtifactBytesWritten.WithLabelValues("upload").Add(float64(len(content)))
	return relPath, nil
}

func (s *diskStore) UploadPath(relPath string) (string, error) {
	absPath, err := resolveWithin(s.uploadRoot, relPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Document", relPath)
		}
		return "", models.NewStorageError("stat", err)
	}
	return absPath, nil
}

func (s *diskStore) DeleteUpload(relPath string) error {
	absPath, err := resolveWithin(s.uploadRoot, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return models.NewStorageError("delete", err)
	}
	return nil
}

func (s *diskStore) SaveGenerated(filename string, content []byte) error {
	absPath, err := resolveName(s.generatedRoot, filename)
	if err != nil {
		return err
	}
	if err := writeBytesToFile(absPath, content); err != nil {
		return models.NewStorageError("write", err)
	}
	middleware.ArtifactBytesWritten.WithLabelValues("letter").Add(float64(len(content)))
	return nil
}

func (s *diskStore) GeneratedPath(filename string) (string, error) {
	absPath, err := resolveName(s.generatedRoot, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Letter", filename)
		}
		return "", models.NewStorageError("stat", err)
	}
	return absPath, nil
}

func (s *diskStore) FindGenerated(candidates []string) (string, bool) {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		absPath, err := resolveName(s.generatedRoot, name)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return name, true
		}
	}
	return "", false
}

func (s *diskStore) DeleteGenerated(filename string) (bool, error) {
	absPath, err := resolveName(s.generatedRoot, filename)
	if err != nil {
		return false, err
	}
	if err := os.Remove(absPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, models.NewStorageError("delete", err)
	}
	return true, nil
}

// resolveWithin joins a relative path onto root and rejects results that
// escape it. Escapes surface as not-found so path probing learns nothing.
func resolveWithin(root, relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", models.NewNotFoundError("Document", relPath)
	}
	absPath := filepath.Join(root, cleaned)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", models.NewStorageError("resolve", err)
	}
	resolved, err := filepath.Abs(absPath)
	if err != nil {
		return "", models.NewStorageError("resolve", err)
	}
	if resolved != absRoot && !strings.HasPrefix(resolved, absRoot+string(filepath.Separator)) {
		return "", models.NewNotFoundError("Document", relPath)
	}
	return absPath, nil
}

// resolveName is resolveWithin for bare filenames: no separators allowed at all.
func resolveName(root, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return "", models.NewNotFoundError("Letter", filename)
	}
	return filepath.Join(root, filename), nil
}

// sanitizeFilename strips directory components and anything outside a
// conservative character set.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return ""
	}
	return out
}

// IsPDF sniffs content and reports whether it is a PDF document.
func IsPDF(content []byte) bool {
	return http.DetectContentType(content) == "application/pdf"
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}
