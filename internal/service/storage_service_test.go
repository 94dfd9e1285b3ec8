package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reading_coach_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageGetURLIsAbsolute(t *testing.T) {
	p := &LocalStorageProvider{Config: &config.StorageConfig{
		PublicBaseURL: "http://media.example.com/",
	}}

	url, err := p.GetURL(context.Background(), "sessions/1/note.m4a")
	require.NoError(t, err)
	assert.Equal(t, "http://media.example.com/uploads/sessions/1/note.m4a", url)
}

func TestLocalStorageGetURLRequiresBaseURL(t *testing.T) {
	p := &LocalStorageProvider{Config: &config.StorageConfig{}}

	_, err := p.GetURL(context.Background(), "sessions/1/note.m4a")
	require.Error(t, err)
}

func TestLocalStorageUploadReturnsFetchableURL(t *testing.T) {
	dir := t.TempDir()
	p := &LocalStorageProvider{Config: &config.StorageConfig{
		LocalPath:     dir,
		PublicBaseURL: "http://localhost:8080",
	}}

	url, err := p.Upload(context.Background(), "sessions/1/note.m4a",
		strings.NewReader("audio-bytes"), 11, "audio/mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/sessions/1/note.m4a", url)

	data, err := os.ReadFile(filepath.Join(dir, "sessions/1/note.m4a"))
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}
