package models

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Progress reports download state to the caller.
type Progress struct {
	Downloaded int64
	Total      int64
}

// ProgressFunc receives periodic download progress.
type ProgressFunc func(Progress)

// Fetcher downloads and installs model archives. Installs are serialized
// so two concurrent pulls cannot race on the models root.
type Fetcher struct {
	Client    *http.Client
	Retries   int
	RetryWait time.Duration

	mu sync.Mutex
}

// NewFetcher returns a Fetcher with sane retry defaults. No client
// timeout: model archives are large and progress is visible to the
// caller, so cancellation goes through the context.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:    &http.Client{},
		Retries:   2,
		RetryWait: 500 * time.Millisecond,
	}
}

// Fetch downloads the model archive, verifies its checksum, extracts it,
// and moves it into place under root. An existing install is kept until
// the new one is complete, then swapped atomically.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec, root string, onProgress ProgressFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create models root: %w", err)
	}
	staging, err := os.MkdirTemp(root, spec.Name+".fetch-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	archive := filepath.Join(staging, spec.Name+".tar.gz")
	if err := f.downloadWithRetry(ctx, spec.URL, archive, onProgress); err != nil {
		return err
	}
	if err := verifyChecksum(archive, spec.Checksum); err != nil {
		return err
	}

	extracted := filepath.Join(staging, "extracted")
	if err := extractTarGz(archive, extracted); err != nil {
		return err
	}
	if err := normalizeModelDir(extracted); err != nil {
		return err
	}
	return installAtomic(extracted, InstallPath(root, spec.Name))
}

func (f *Fetcher) downloadWithRetry(ctx context.Context, url, dest string, onProgress ProgressFunc) error {
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.RetryWait):
			}
		}
		if lastErr = f.download(ctx, url, dest, onProgress); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("download %s: %w", url, lastErr)
}

func (f *Fetcher) download(ctx context.Context, url, dest string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(Progress{Downloaded: written, Total: resp.ContentLength})
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func verifyChecksum(path, expected string) error {
	if strings.TrimSpace(expected) == "" {
		return errors.New("model spec has no checksum")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	actual := "sha256:" + hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return fmt.Errorf("checksum mismatch: want %s, got %s", expected, actual)
	}
	return nil
}

func extractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		name := strings.TrimPrefix(filepath.Clean(hdr.Name), "./")
		if name == "." || strings.HasPrefix(name, "../") {
			continue
		}
		target := filepath.Join(dest, name)
		// Entries must stay inside dest.
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

// normalizeModelDir accepts archives that nest the model files one
// directory deep and flattens them into base.
func normalizeModelDir(base string) error {
	if hasRequiredFiles(base) {
		return nil
	}
	entries, _ := os.ReadDir(base)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		nested := filepath.Join(base, e.Name())
		if !hasRequiredFiles(nested) {
			continue
		}
		for _, name := range requiredFiles {
			if err := os.Rename(filepath.Join(nested, name), filepath.Join(base, name)); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New("archive is missing required model files")
}

func hasRequiredFiles(dir string) bool {
	for _, name := range requiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func installAtomic(src, dest string) error {
	backup := dest + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(dest); err == nil {
		if err := os.Rename(dest, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dest); err != nil {
		_ = os.Rename(backup, dest)
		return fmt.Errorf("install model: %w", err)
	}
	_ = os.RemoveAll(backup)
	return nil
}
