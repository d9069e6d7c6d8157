package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPutStoresAndReturnsURL(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root, "https://api.test/files/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	url, err := store.Put(context.Background(), "invoices/abc.pdf", []byte("%PDF-1.3"), "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://api.test/files/invoices/abc.pdf" {
		t.Fatalf("url = %s", url)
	}
	data, err := os.ReadFile(filepath.Join(root, "invoices", "abc.pdf"))
	if err != nil || string(data) != "%PDF-1.3" {
		t.Fatalf("stored %q, %v", data, err)
	}

	if _, err := store.Put(context.Background(), "invoices/abc.pdf", []byte("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(root, "invoices", "abc.pdf"))
	if string(data) != "%PDF-1.4" {
		t.Fatalf("not overwritten: %q", data)
	}
}

func TestPutRejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost/files")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, key := range []string{"../secret", "/abs.pdf", "", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, nil, ""); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}
