package models

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, prefix string) []byte {
	t.Helper()
	var b bytes.Buffer
	gz := gzip.NewWriter(&b)
	tw := tar.NewWriter(gz)
	files := map[string]string{
		prefix + "model.onnx":     "dummy-onnx",
		prefix + "labels.json":    `{"0":"O","1":"B-PER"}`,
		prefix + "tokenizer.json": `{"model":{"vocab":{"[UNK]":0,"[CLS]":1,"[SEP]":2}}}`,
	}
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return b.Bytes()
}

func archiveChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func serveArchive(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchInstallsModel(t *testing.T) {
	archive := buildArchive(t, "")
	srv := serveArchive(t, archive)
	root := t.TempDir()

	spec := Spec{Name: "spacy_de", URL: srv.URL, Checksum: archiveChecksum(archive)}
	var seen Progress
	err := NewFetcher().Fetch(context.Background(), spec, root, func(p Progress) { seen = p })
	require.NoError(t, err)

	assert.True(t, IsInstalled(root, "spacy_de"))
	assert.Positive(t, seen.Downloaded)
}

func TestFetchFlattensNestedArchive(t *testing.T) {
	archive := buildArchive(t, "spacy_de/")
	srv := serveArchive(t, archive)
	root := t.TempDir()

	spec := Spec{Name: "spacy_de", URL: srv.URL, Checksum: archiveChecksum(archive)}
	require.NoError(t, NewFetcher().Fetch(context.Background(), spec, root, nil))
	assert.True(t, IsInstalled(root, "spacy_de"))
}

func TestFetchRejectsChecksumMismatch(t *testing.T) {
	archive := buildArchive(t, "")
	srv := serveArchive(t, archive)

	spec := Spec{Name: "spacy_de", URL: srv.URL, Checksum: "sha256:deadbeef"}
	err := NewFetcher().Fetch(context.Background(), spec, t.TempDir(), nil)
	require.ErrorContains(t, err, "checksum mismatch")
}

func TestFetchRejectsMissingChecksum(t *testing.T) {
	archive := buildArchive(t, "")
	srv := serveArchive(t, archive)

	spec := Spec{Name: "spacy_de", URL: srv.URL}
	err := NewFetcher().Fetch(context.Background(), spec, t.TempDir(), nil)
	require.Error(t, err)
}

func TestFetchReplacesExistingInstall(t *testing.T) {
	archive := buildArchive(t, "")
	srv := serveArchive(t, archive)
	root := t.TempDir()
	spec := Spec{Name: "spacy_de", URL: srv.URL, Checksum: archiveChecksum(archive)}

	// Pre-existing broken install must be swapped out, not merged into.
	old := InstallPath(root, "spacy_de")
	require.NoError(t, os.MkdirAll(old, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(old, "stale.bin"), []byte("x"), 0o644))

	require.NoError(t, NewFetcher().Fetch(context.Background(), spec, root, nil))
	assert.True(t, IsInstalled(root, "spacy_de"))
	_, err := os.Stat(filepath.Join(old, "stale.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchIncompleteArchiveFails(t *testing.T) {
	var b bytes.Buffer
	gz := gzip.NewWriter(&b)
	tw := tar.NewWriter(gz)
	content := "only-a-model"
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "model.onnx", Mode: 0o644, Size: int64(len(content))}))
	_, err := tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	archive := b.Bytes()
	srv := serveArchive(t, archive)

	spec := Spec{Name: "spacy_de", URL: srv.URL, Checksum: archiveChecksum(archive)}
	err = NewFetcher().Fetch(context.Background(), spec, t.TempDir(), nil)
	require.ErrorContains(t, err, "missing required model files")
}

func TestRegistryListsShippedModels(t *testing.T) {
	reg, err := LoadRegistry()
	require.NoError(t, err)
	require.Len(t, reg.Models, 2)

	spacy, ok := reg.Find("spacy_de")
	require.True(t, ok)
	assert.Contains(t, spacy.EntityTypes, "PERSON")
	assert.True(t, spacy.Recommended)

	_, ok = reg.Find("nope")
	assert.False(t, ok)
}

func TestIsInstalledRequiresAllFiles(t *testing.T) {
	root := t.TempDir()
	dir := InstallPath(root, "spacy_de")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.onnx"), []byte("x"), 0o644))

	assert.False(t, IsInstalled(root, "spacy_de"))
}
