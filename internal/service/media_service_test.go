package service

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestMediaService(t *testing.T, maxBytes int64) (*MediaService, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{UploadDir: filepath.Join(dir, "uploads"), MaxUploadBytes: maxBytes}
	return NewMediaService(cfg, zerolog.New(io.Discard)), cfg.UploadDir
}

func openUpload(t *testing.T, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, &multipart.FileHeader{Filename: "upload.bin", Size: int64(len(data))}
}

func TestDetectImageType(t *testing.T) {
	assert.Equal(t, "image/png", DetectImageType(pngHeader))
	assert.Equal(t, "image/gif", DetectImageType([]byte("GIF89a......")))
	assert.Equal(t, "text/plain", DetectImageType([]byte("hello world")))
}

func TestSaveUploadStoresImage(t *testing.T) {
	svc, dir := newTestMediaService(t, 1024)
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 600)...)
	file, header := openUpload(t, data)

	url, err := svc.SaveUpload(file, header)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, UploadURLPrefix))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, UploadURLPrefix)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestSaveUploadRejectsNonImage(t *testing.T) {
	svc, _ := newTestMediaService(t, 1024)
	file, header := openUpload(t, []byte("#!/bin/sh\necho hi\n"))

	_, err := svc.SaveUpload(file, header)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestSaveUploadRejectsDeclaredOversize(t *testing.T) {
	svc, _ := newTestMediaService(t, 16)
	file, header := openUpload(t, append(append([]byte{}, pngHeader...), make([]byte, 32)...))

	_, err := svc.SaveUpload(file, header)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSaveUploadRejectsUnderstatedSize(t *testing.T) {
	svc, dir := newTestMediaService(t, 64)
	file, header := openUpload(t, append(append([]byte{}, pngHeader...), make([]byte, 200)...))
	header.Size = 10

	_, err := svc.SaveUpload(file, header)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file is removed")
}
