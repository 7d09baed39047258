package drive

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore writes artifacts to the local filesystem. Development and test
// backend; credentials are accepted but not enforced.
type LocalStore struct {
	baseDir string
	baseURL string
}

func NewLocalStore(baseDir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "generated"), 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, baseURL: baseURL}, nil
}

func (s *LocalStore) Upload(ctx context.Context, artifact Artifact, displayName string, creds *Credentials) (*Link, error) {
	key := localKey(displayName)
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory structure: %w", err)
	}
	if err := os.WriteFile(fullPath, artifact.Content, 0644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	slog.Info("document uploaded to local storage", "key", key, "size", len(artifact.Content))

	return &Link{
		URL:    fmt.Sprintf("%s/%s", s.baseURL, key),
		FileID: key,
	}, nil
}

func (s *LocalStore) ListRecent(ctx context.Context, sinceDays int, creds *Credentials) ([]FileMeta, error) {
	cutoff := time.Now().AddDate(0, 0, -sinceDays)
	root := filepath.Join(s.baseDir, "generated")

	var files []FileMeta
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !strings.HasPrefix(d.Name(), namePrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		files = append(files, FileMeta{
			ID:         key,
			Name:       d.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			URL:        fmt.Sprintf("%s/%s", s.baseURL, key),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk storage dir: %w", err)
	}

	sort.Slice(files, func(a, b int) bool {
		return files[a].ModifiedAt.After(files[b].ModifiedAt)
	})
	return files, nil
}

func localKey(displayName string) string {
	safe := filepath.Base(strings.ReplaceAll(displayName, " ", "_"))
	day := time.Now().Format("2006/01/02")
	uniqueID := uuid.New().String()[:8]
	ext := filepath.Ext(safe)
	base := strings.TrimSuffix(safe, ext)
	return fmt.Sprintf("generated/%s/%s_%s%s", day, base, uniqueID, ext)
}
