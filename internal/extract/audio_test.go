package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/retry"
)

func TestAudioExtension(t *testing.T) {
	cases := []struct {
		hint string
		want string
		ok   bool
	}{
		{"", "mp3", true},
		{"audio/mpeg", "mp3", true},
		{"audio/x-m4a", "m4a", true},
		{"audio/ogg; codecs=opus", "ogg", true},
		{"audio/x-flac", "flac", true},
		{"recording.WAV", "wav", true},
		{"uploads/abc/voice.mpga", "mp3", true},
		{"audio/x-aac", "", false},
		{"video/quicktime", "", false},
	}
	for _, tc := range cases {
		got, ok := AudioExtension(tc.hint)
		assert.Equal(t, tc.ok, ok, tc.hint)
		assert.Equal(t, tc.want, got, tc.hint)
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAudioTranscriberUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranscriber{text: "x"}
	a := &AudioTranscriber{Backend: tr, TempDir: dir}

	_, err := a.Transcribe(context.Background(), strings.NewReader("data"), "video/quicktime")
	assert.Equal(t, failure.UnsupportedAudioFormat, failure.KindOf(err))
	assert.Empty(t, tr.path)
	assertDirEmpty(t, dir)
}

func TestAudioTranscriberRemovesTempFileOnSuccess(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranscriber{text: "  the quarterly numbers look good  "}
	a := &AudioTranscriber{Backend: tr, TempDir: dir}

	text, err := a.Transcribe(context.Background(), strings.NewReader("mp3-bytes"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "the quarterly numbers look good", text)
	assert.True(t, tr.existed)
	assert.Equal(t, "mp3-bytes", tr.contents)
	assert.Equal(t, dir, filepath.Dir(tr.path))
	assertDirEmpty(t, dir)
}

func TestAudioTranscriberRemovesTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranscriber{err: failure.Upstream(failure.UpstreamError, "fake", 503, "busy")}
	a := &AudioTranscriber{Backend: tr, TempDir: dir}

	_, err := a.Transcribe(context.Background(), strings.NewReader("data"), "audio/wav")
	require.Error(t, err)
	assert.Equal(t, failure.UpstreamError, failure.KindOf(err))
	assert.Equal(t, 503, failure.StatusOf(err))
	assert.True(t, tr.existed)
	assert.Equal(t, ".wav", filepath.Ext(tr.path))
	assertDirEmpty(t, dir)
}

func TestAudioTranscriberEmptyInput(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranscriber{text: "never"}
	a := &AudioTranscriber{Backend: tr, TempDir: dir}

	text, err := a.Transcribe(context.Background(), strings.NewReader(""), "")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Empty(t, tr.path)
	assertDirEmpty(t, dir)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestAudioTranscriberReadError(t *testing.T) {
	dir := t.TempDir()
	a := &AudioTranscriber{Backend: &fakeTranscriber{}, TempDir: dir}

	_, err := a.Transcribe(context.Background(), failingReader{}, "audio/mpeg")
	assert.Equal(t, failure.FetchFailed, failure.KindOf(err))
	assertDirEmpty(t, dir)
}

func TestAudioExtractorUsesSignedStorageKey(t *testing.T) {
	srv := audioServer(t, "m4a-bytes")
	tr := &fakeTranscriber{text: "meeting notes"}
	a := &AudioExtractor{
		Locator:     fakeLocator{loc: Location{StorageKey: "audio/doc-1.m4a", MimeType: "audio/x-m4a", Title: "Standup"}},
		Signer:      urlSigner{url: srv.URL},
		Downloader:  NewDownloader(srv.Client(), retry.Policy{Attempts: 1}),
		Transcriber: &AudioTranscriber{Backend: tr, TempDir: t.TempDir()},
	}

	res, err := a.Extract(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", res.Text)
	assert.Equal(t, "Standup", res.Title)
	assert.Equal(t, ".m4a", filepath.Ext(tr.path))
	assert.Equal(t, "m4a-bytes", tr.contents)
}

func TestAudioExtractorFallsBackToResponseType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("ogg"))
	}))
	defer srv.Close()
	tr := &fakeTranscriber{text: "hello"}
	a := &AudioExtractor{
		Locator:     fakeLocator{loc: Location{URL: srv.URL + "/clip", MimeType: "application/octet-stream"}},
		Downloader:  NewDownloader(srv.Client(), retry.Policy{Attempts: 1}),
		Transcriber: &AudioTranscriber{Backend: tr, TempDir: t.TempDir()},
	}

	res, err := a.Extract(context.Background(), "doc-2")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/clip", res.SourceURL)
	assert.Equal(t, ".ogg", filepath.Ext(tr.path))
}

func TestAudioExtractorWithoutLocation(t *testing.T) {
	a := &AudioExtractor{Locator: fakeLocator{loc: Location{}}}
	_, err := a.Extract(context.Background(), "doc-3")
	assert.Equal(t, failure.InvalidInput, failure.KindOf(err))
}
