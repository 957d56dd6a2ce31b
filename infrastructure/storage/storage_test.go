package storage

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"browser_scripts/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.PNG"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "nested", "c.webp"))
	touch(t, filepath.Join(dir, "notes.txt"))

	images, err := ScanImages(dir, []string{".png", "jpg", "*.webp"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "nested", "c.webp"),
	}, images)
}

func TestScanImages_MissingDir(t *testing.T) {
	_, err := ScanImages(filepath.Join(t.TempDir(), "missing"), []string{".png"})
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.Equal(t, "Capitulo 1 - pagina.png", SafeName("Capítulo 1 - página.png", now))
	assert.Equal(t, "manana.jpg", SafeName("mañana.jpg", now))
	assert.Equal(t, "image_1700000000.png", SafeName("日本語.png", now))
	assert.Equal(t, "image_1700000000.png", SafeName("漫画", now))
}

func TestSafeCopy(t *testing.T) {
	src := filepath.Join(t.TempDir(), "página.png")
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0644))
	tempDir := filepath.Join(t.TempDir(), "gemini_images")

	dst, err := SafeCopy(src, tempDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "pagina.png"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image-data"))
	}))
	defer server.Close()

	d := NewDownloader(5 * time.Second)
	dst := filepath.Join(t.TempDir(), "out", "img.png")

	require.NoError(t, d.Download(context.Background(), server.URL+"/img.png", dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "image-data", string(data))

	missing := filepath.Join(t.TempDir(), "missing.png")
	err = d.Download(context.Background(), server.URL+"/missing", missing)
	assert.ErrorContains(t, err, "HTTP 404")
	assert.NoFileExists(t, missing)
}

func TestDecodeDataURL(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "result.png")
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))

	require.NoError(t, DecodeDataURL("data:image/png;base64,"+payload, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	assert.ErrorIs(t, DecodeDataURL("https://example.com/a.png", dst), ErrInvalidDataURL)
	assert.ErrorIs(t, DecodeDataURL("data:image/png,raw", dst), ErrInvalidDataURL)
	assert.ErrorIs(t, DecodeDataURL("data:image/png;base64,!!!", dst), ErrInvalidDataURL)
}

func TestReportStore_RoundTrip(t *testing.T) {
	store := NewReportStore()
	path := filepath.Join(t.TempDir(), "reports", "posts_data.json")

	report := entities.PostsReport{
		RunID:      "run-1",
		TotalPosts: 1,
		Posts: []entities.PostRecord{{
			ID:   "Cx1_ab",
			URL:  "https://www.instagram.com/p/Cx1_ab/?img_index=1&x=y",
			Type: entities.PostCarousel,
		}},
	}
	require.NoError(t, store.SaveJSON(path, report))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "img_index=1&x=y")
	assert.NoFileExists(t, path+".tmp")

	var loaded entities.PostsReport
	require.NoError(t, store.LoadJSON(path, &loaded))
	assert.Equal(t, report.Posts[0].URL, loaded.Posts[0].URL)
	assert.Equal(t, entities.PostCarousel, loaded.Posts[0].Type)
}
