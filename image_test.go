package bpreader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeImageRoundTrip(t *testing.T) {
	// Every byte value, plus a JPEG SOI marker up front
	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	for i := range 256 {
		data = append(data, byte(i))
	}
	path := filepath.Join(t.TempDir(), "bp.jpg")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	b64, err := EncodeImage(path)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("Unexpected decode error %s", err)
	}
	if !bytes.Equal(data, decoded) {
		t.Error("Decoded image does not match original bytes")
	}
}

func TestEncodeImageEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	b64, err := EncodeImage(path)
	if err != nil || b64 != "" {
		t.Errorf("Expected empty encoding, got %q, %v", b64, err)
	}
}

func TestEncodeImageMissing(t *testing.T) {
	_, err := EncodeImage(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrImageProcessing) {
		t.Errorf("Expected ErrImageProcessing, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected root cause to be kept, got %v", err)
	}
	if Kind(err) != "image" {
		t.Errorf("Expected image kind, got %q", Kind(err))
	}
}
