// Package drive uploads generated artifacts to the user's remote storage
// and lists previously generated documents.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// namePrefix marks generated files so the listing only returns documents
// this service produced.
const namePrefix = "RFP_Summary_"

// Artifact is a rendered document ready for upload.
type Artifact struct {
	Content     []byte
	ContentType string
}

// Credentials are caller-supplied storage credentials, carried serialized
// in the X-Drive-Credentials header.
type Credentials struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty"`
}

// ParseCredentials decodes the header value: URL-escaped JSON.
func ParseCredentials(header string) (*Credentials, error) {
	raw, err := url.QueryUnescape(header)
	if err != nil {
		return nil, fmt.Errorf("unescape credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, fmt.Errorf("credentials missing key id or secret")
	}
	return &creds, nil
}

// Link is the shareable result of an upload.
type Link struct {
	URL    string `json:"url"`
	FileID string `json:"file_id"`
}

// FileMeta describes one previously generated document.
type FileMeta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ModifiedAt  time.Time `json:"modified_at"`
	URL         string    `json:"url"`
}

// Store is the remote storage backend.
type Store interface {
	// Upload stores the artifact under displayName and returns a
	// shareable link. When creds is nil and no service identity is
	// allowed, fails with common.ErrAuthRequired.
	Upload(ctx context.Context, artifact Artifact, displayName string, creds *Credentials) (*Link, error)
	// ListRecent returns generated documents modified in the last
	// sinceDays days, most recent first.
	ListRecent(ctx context.Context, sinceDays int, creds *Credentials) ([]FileMeta, error)
}
