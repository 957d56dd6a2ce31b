package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrInvalidDataURL = errors.New("invalid data url")

// Downloader fetches remote images; the client is shared across requests
type Downloader struct {
	client *http.Client
}

// NewDownloader - creates a downloader with the given request timeout
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Downloader{client: &http.Client{Timeout: timeout}}
}

// Download - saves the body of url to dst. Non-2xx answers are errors.
func (d *Downloader) Download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	return writeFile(dst, resp.Body)
}

// DecodeDataURL - writes the base64 payload of a data: URL to dst
func DecodeDataURL(dataURL, dst string) error {
	if !strings.HasPrefix(dataURL, "data:") {
		return ErrInvalidDataURL
	}
	meta, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidDataURL)
	}

	return writeFile(dst, bytes.NewReader(data))
}

func writeFile(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = errors.New("empty response")
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
