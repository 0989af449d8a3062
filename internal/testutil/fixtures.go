// Package testutil provides helpers for building synthetic HE3 backup
// images and temporary files in tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// BackupBuilder assembles a synthetic HE3 backup image byte by byte.
// Fixtures built this way stay readable in tests: each call appends one
// structural piece of the file.
type BackupBuilder struct {
	buf bytes.Buffer
}

// NewBackup starts an image with the HE3 signature and a 4-byte version
// tag. Shorter versions are NUL-padded the way real files pad them.
func NewBackup(version string) *BackupBuilder {
	b := &BackupBuilder{}
	b.buf.WriteString("HE3")
	tag := []byte(version)
	for len(tag) < 4 {
		tag = append(tag, 0)
	}
	b.buf.Write(tag[:4])
	return b
}

// NewRawImage starts an image from arbitrary leading bytes, for buffers
// that deliberately lack the signature.
func NewRawImage(leading []byte) *BackupBuilder {
	b := &BackupBuilder{}
	b.buf.Write(leading)
	return b
}

// Fill appends n copies of c.
func (b *BackupBuilder) Fill(n int, c byte) *BackupBuilder {
	b.buf.Write(bytes.Repeat([]byte{c}, n))
	return b
}

// Nulls appends a run of n zero bytes.
func (b *BackupBuilder) Nulls(n int) *BackupBuilder {
	return b.Fill(n, 0)
}

// Text appends a literal string.
func (b *BackupBuilder) Text(s string) *BackupBuilder {
	b.buf.WriteString(s)
	return b
}

// Invoice appends an invoice record in the heuristic on-disk layout: a
// 6-digit number, a 3-character series, one filler byte, and an 8-byte
// value window holding the monetary literal padded with spaces. Trailing
// filler keeps the candidate inside the extractor's lookahead.
func (b *BackupBuilder) Invoice(number, series, value string) *BackupBuilder {
	b.buf.WriteString(number)
	b.buf.WriteString(series)
	b.buf.WriteByte('#')

	window := []byte(value)
	for len(window) < 8 {
		window = append(window, ' ')
	}
	b.buf.Write(window[:8])

	b.buf.WriteString("###")
	return b
}

// Bytes returns the assembled image.
func (b *BackupBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the current image length.
func (b *BackupBuilder) Len() int {
	return b.buf.Len()
}

// TempDir creates a temporary directory cleaned up with the test.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pdv-analysis-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// WriteTempFile writes content to a file inside a fresh temp dir and
// returns its path.
func WriteTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(TempDir(t), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
