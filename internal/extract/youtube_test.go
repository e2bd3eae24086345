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
	"notesum-backend/internal/shared/cache"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func audioServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s": "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ":     "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                  "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":     "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":    "dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ":      "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=short":         "",
		"https://www.youtube.com/channel/UCxyz":         "",
		"https://vimeo.com/123456":                      "",
		"https://notyoutube.com/watch?v=dQw4w9WgXcQ":    "",
	}
	for raw, want := range cases {
		got, ok := VideoID(raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, want != "", ok, raw)
	}
}

func TestYouTubeCaptionsPreferEnglish(t *testing.T) {
	src := &fakeVideoSource{
		info: VideoInfo{
			Title:           "Talk",
			DurationSeconds: 300,
			CaptionTracks: []CaptionTrack{
				{BaseURL: "", LanguageCode: "en"},
				{BaseURL: "https://captions.test/de", LanguageCode: "de"},
				{BaseURL: "https://captions.test/en", LanguageCode: "en-US"},
			},
		},
		captions: `<transcript><text start="0">Hello &amp;amp; welcome</text><text start="2">to the show</text></transcript>`,
	}
	y := &YouTubeExtractor{Source: src, Cache: cache.NewMemory()}

	res, err := y.Extract(context.Background(), testVideoURL)
	require.NoError(t, err)
	assert.Equal(t, "Hello & welcome to the show", res.Text)
	assert.Equal(t, "Talk", res.Title)
	assert.Equal(t, 300, res.DurationSeconds)
	assert.Empty(t, res.Warnings)

	track, ok := pickTrack(src.info.CaptionTracks)
	require.True(t, ok)
	assert.Equal(t, "https://captions.test/en", track.BaseURL)
}

func TestYouTubeServesFromCache(t *testing.T) {
	c := cache.NewMemory()
	first := &fakeVideoSource{
		info:     VideoInfo{Title: "Cached", CaptionTracks: []CaptionTrack{{BaseURL: "u", LanguageCode: "en"}}},
		captions: `<text>cached transcript text</text>`,
	}
	_, err := (&YouTubeExtractor{Source: first, Cache: c}).Extract(context.Background(), testVideoURL)
	require.NoError(t, err)

	second := &fakeVideoSource{infoErr: errors.New("should not be called")}
	res, err := (&YouTubeExtractor{Source: second, Cache: c}).Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "cached transcript text", res.Text)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", res.SourceURL)
	assert.Equal(t, 0, second.infoCalls)
}

func TestYouTubeInfoGoneFallsBackToAudio(t *testing.T) {
	srv := audioServer(t, "fake-audio-bytes")
	dir := t.TempDir()
	tr := &fakeTranscriber{text: "  spoken words  "}
	y := &YouTubeExtractor{
		Source:       &fakeVideoSource{infoErr: gone(), streamURL: srv.URL, streamMime: "audio/webm; codecs=\"opus\""},
		Audio:        &AudioTranscriber{Backend: tr, TempDir: dir},
		StreamClient: srv.Client(),
	}

	res, err := y.Extract(context.Background(), testVideoURL)
	require.NoError(t, err)
	assert.Equal(t, "spoken words", res.Text)
	assert.Contains(t, res.Warnings, WarningAudioFallback)
	assert.Equal(t, ".webm", filepath.Ext(tr.path))
	assert.True(t, tr.existed)
	assert.Equal(t, "fake-audio-bytes", tr.contents)
	_, statErr := os.Stat(tr.path)
	assert.True(t, os.IsNotExist(statErr))
	assertDirEmpty(t, dir)
}

func TestYouTubeCaptionGoneFallsBackToAudio(t *testing.T) {
	srv := audioServer(t, "abc")
	src := &fakeVideoSource{
		info:       VideoInfo{Title: "T", CaptionTracks: []CaptionTrack{{BaseURL: "u", LanguageCode: "en"}}},
		captionErr: gone(),
		streamURL:  srv.URL,
		streamMime: "audio/mp4",
	}
	dir := t.TempDir()
	y := &YouTubeExtractor{
		Source:       src,
		Audio:        &AudioTranscriber{Backend: &fakeTranscriber{text: "from audio"}, TempDir: dir},
		StreamClient: srv.Client(),
	}

	res, err := y.Extract(context.Background(), testVideoURL)
	require.NoError(t, err)
	assert.Equal(t, "from audio", res.Text)
	assert.Equal(t, "T", res.Title)
	assert.Equal(t, 1, src.captionCalls)
	assertDirEmpty(t, dir)
}

func TestYouTubeAudioFailureIsNoTranscript(t *testing.T) {
	cases := map[string]*YouTubeExtractor{
		"stream lookup fails": {
			Source: &fakeVideoSource{streamErr: errors.New("no formats")},
			Audio:  &AudioTranscriber{Backend: &fakeTranscriber{text: "x"}, TempDir: t.TempDir()},
		},
		"no audio transcriber": {
			Source: &fakeVideoSource{},
		},
	}
	for name, y := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := y.Extract(context.Background(), testVideoURL)
			require.Error(t, err)
			assert.Equal(t, failure.NoTranscriptAvailable, failure.KindOf(err))
			assert.Equal(t, failure.MessageNoTranscript, failure.UserMessage(err))
		})
	}
}

func TestYouTubeEmptyTranscriptionIsNoTranscript(t *testing.T) {
	srv := audioServer(t, "abc")
	y := &YouTubeExtractor{
		Source:       &fakeVideoSource{streamURL: srv.URL, streamMime: "audio/mp4"},
		Audio:        &AudioTranscriber{Backend: &fakeTranscriber{text: "   "}, TempDir: t.TempDir()},
		StreamClient: srv.Client(),
	}
	_, err := y.Extract(context.Background(), testVideoURL)
	assert.Equal(t, failure.NoTranscriptAvailable, failure.KindOf(err))
}

func TestYouTubeInfoErrorIsUpstream(t *testing.T) {
	y := &YouTubeExtractor{Source: &fakeVideoSource{infoErr: failure.Upstream(failure.UpstreamError, "fake", 500, "boom")}}
	_, err := y.Extract(context.Background(), testVideoURL)
	assert.Equal(t, failure.UpstreamError, failure.KindOf(err))

	_, err = y.Extract(context.Background(), "https://example.com/watch?v=dQw4w9WgXcQ")
	assert.Equal(t, failure.InvalidInput, failure.KindOf(err))
}

func TestFetchCaptionDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = w.Write([]byte("<text>hi</text>"))
	}))
	defer srv.Close()

	doc, err := fetchCaptionDocument(context.Background(), srv.Client(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "<text>hi</text>", doc)

	_, err = fetchCaptionDocument(context.Background(), srv.Client(), srv.URL+"/gone")
	assert.Equal(t, http.StatusGone, failure.StatusOf(err))
}
