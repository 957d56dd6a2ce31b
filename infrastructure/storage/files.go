package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ScanImages - returns the files under dir (recursively) whose extension is in exts, sorted
func ScanImages(dir string, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, "*")
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	seen := make(map[string]bool)
	var images []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			images = append(images, clean)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(images)
	return images, nil
}

// SafeName - folds a file name to ASCII so upload dialogs and inputs accept it.
// A name with nothing left before the extension becomes image_<unix>.
func SafeName(name string, now time.Time) string {
	folding := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folding, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII && r != '/' && r != '\\' && unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(b.String())

	ext := filepath.Ext(safe)
	if strings.TrimSpace(strings.TrimSuffix(safe, ext)) == "" {
		if ext == "" {
			ext = ".png"
		}
		return fmt.Sprintf("image_%d%s", now.Unix(), ext)
	}
	return safe
}

// SafeCopy - copies src into dir under its ASCII-safe name and returns the new path
func SafeCopy(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	dst := filepath.Join(dir, SafeName(filepath.Base(src), time.Now()))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	// keep the original timestamps
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return dst, nil
}
