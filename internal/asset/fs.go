package asset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSBackend writes images below a directory that the HTTP server exposes under urlPrefix.
type FSBackend struct {
	baseDir   string
	urlPrefix string
}

func NewFSBackend(baseDir, urlPrefix string) (*FSBackend, error) {
	if baseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSBackend{
		baseDir:   baseDir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

func (b *FSBackend) Put(ctx context.Context, key string, payload string) (string, error) {
	p, err := DecodePayload(payload)
	if err != nil {
		return "", err
	}

	// Files are named after the key so Remove can find them without knowing the type.
	if err := b.Remove(ctx, key); err != nil {
		return "", err
	}

	name := filepath.FromSlash(key) + p.Ext()
	filePath := filepath.Join(b.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, p.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return b.urlPrefix + "/" + path.Clean(key+p.Ext()), nil
}

func (b *FSBackend) Remove(ctx context.Context, key string) error {
	base := filepath.Join(b.baseDir, filepath.FromSlash(key))
	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return fmt.Errorf("failed to look up file: %w", err)
	}
	matches = append(matches, base)

	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}

	return nil
}
