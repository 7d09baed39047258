package drive

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_UploadAndList(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("NewLocalStore error: %v", err)
	}

	ctx := context.Background()
	link, err := s.Upload(ctx, Artifact{Content: []byte("doc bytes")}, "RFP_Summary_test.docx", nil)
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if !strings.HasPrefix(link.URL, "http://localhost:8080/files/generated/") {
		t.Errorf("unexpected link URL %q", link.URL)
	}
	if !strings.HasSuffix(link.FileID, ".docx") {
		t.Errorf("unexpected file id %q", link.FileID)
	}

	written, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(link.FileID)))
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(written) != "doc bytes" {
		t.Errorf("file content mismatch: %q", written)
	}

	files, err := s.ListRecent(ctx, 1, nil)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if !strings.HasPrefix(files[0].Name, "RFP_Summary_") {
		t.Errorf("unexpected name %q", files[0].Name)
	}
}

func TestLocalStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("NewLocalStore error: %v", err)
	}

	// A file without the service prefix must not be listed.
	foreign := filepath.Join(dir, "generated", "notes.txt")
	if err := os.WriteFile(foreign, []byte("x"), 0644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	files, err := s.ListRecent(context.Background(), 30, nil)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}

func TestParseCredentials(t *testing.T) {
	raw := `{"access_key_id":"AKIA123","secret_access_key":"secret","session_token":"tok"}`
	creds, err := ParseCredentials(url.QueryEscape(raw))
	if err != nil {
		t.Fatalf("ParseCredentials error: %v", err)
	}
	if creds.AccessKeyID != "AKIA123" || creds.SecretAccessKey != "secret" || creds.SessionToken != "tok" {
		t.Errorf("unexpected credentials %+v", creds)
	}
}

func TestParseCredentials_Invalid(t *testing.T) {
	cases := []string{
		"not json",
		url.QueryEscape(`{"access_key_id":"only-key"}`),
		url.QueryEscape(`{}`),
	}
	for _, raw := range cases {
		if _, err := ParseCredentials(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
