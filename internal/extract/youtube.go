package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/cache"
	"notesum-backend/internal/shared/metrics"
	"notesum-backend/internal/shared/telemetry"
	"notesum-backend/internal/textnorm"
)

// WarningAudioFallback marks transcripts produced from the audio track.
const WarningAudioFallback = "fell back to audio transcription"

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
	"www.youtu.be":      true,
}

// CaptionTrack is one subtitle stream advertised by the player response.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Kind         string
}

// VideoInfo is the subset of video metadata the extractor needs.
type VideoInfo struct {
	Title           string
	DurationSeconds int
	CaptionTracks   []CaptionTrack
}

// VideoSource talks to YouTube. Upstream failures carry their HTTP status so a
// 410 can be told apart from other errors.
type VideoSource interface {
	VideoInfo(ctx context.Context, videoID string) (VideoInfo, error)
	CaptionDocument(ctx context.Context, trackURL string) (string, error)
	AudioStreamURL(ctx context.Context, videoID string) (streamURL string, mimeType string, err error)
}

// YouTubeExtractor resolves a video to a transcript: captions first, then the
// audio track through the speech-to-text adapter.
type YouTubeExtractor struct {
	Source          VideoSource
	Audio           *AudioTranscriber
	StreamClient    *http.Client
	Cache           cache.Cache
	CacheTTL        time.Duration
	FallbackTimeout time.Duration
}

// VideoID extracts the 11-character ID from a YouTube watch, short, embed or youtu.be URL.
func VideoID(raw string) (string, bool) {
	u, ok := parseHTTPURL(raw)
	if !ok || !youtubeHosts[strings.ToLower(u.Hostname())] {
		return "", false
	}
	var id string
	if strings.HasSuffix(strings.ToLower(u.Hostname()), "youtu.be") {
		id = strings.Trim(u.Path, "/")
	} else if u.Path == "/watch" {
		id = u.Query().Get("v")
	} else {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "embed", "v", "shorts", "live":
				id = parts[1]
			}
		}
	}
	if !videoIDRe.MatchString(id) {
		return "", false
	}
	return id, true
}

// IsYouTubeURL reports whether raw is a recognizable YouTube video link.
func IsYouTubeURL(raw string) bool {
	_, ok := VideoID(raw)
	return ok
}

// Extract returns the transcript for videoURL.
func (y *YouTubeExtractor) Extract(ctx context.Context, videoURL string) (Result, error) {
	const op = "youtube.extract"
	videoID, ok := VideoID(videoURL)
	if !ok {
		return Result{}, failure.New(failure.InvalidInput, op, "not a YouTube video URL")
	}

	if res, hit := y.cached(ctx, videoID); hit {
		res.SourceURL = videoURL
		return res, nil
	}

	res := Result{SourceURL: videoURL}
	info, err := y.Source.VideoInfo(ctx, videoID)
	switch {
	case err == nil:
		res.Title = info.Title
		res.DurationSeconds = info.DurationSeconds
		res.Text = y.captions(ctx, videoID, info.CaptionTracks)
	case failure.StatusOf(err) == http.StatusGone:
		telemetry.Warn("youtube.info_gone", map[string]any{"video_id": videoID})
	default:
		return Result{}, failure.Wrap(failure.UpstreamError, op, err)
	}

	if res.Text == "" {
		text, err := y.transcribeAudio(ctx, videoID)
		if err != nil {
			return Result{}, err
		}
		res.Text = text
		res.Warnings = append(res.Warnings, WarningAudioFallback)
		metrics.IncYouTubeAudioFallback()
	}

	y.store(ctx, videoID, res)
	return res, nil
}

// captions returns "" whenever the caption path cannot produce text.
func (y *YouTubeExtractor) captions(ctx context.Context, videoID string, tracks []CaptionTrack) string {
	track, ok := pickTrack(tracks)
	if !ok {
		telemetry.Info("youtube.no_captions", map[string]any{"video_id": videoID})
		return ""
	}
	doc, err := y.Source.CaptionDocument(ctx, track.BaseURL)
	if err != nil {
		telemetry.Warn("youtube.caption_fetch_failed", map[string]any{
			"video_id": videoID,
			"status":   failure.StatusOf(err),
			"error":    err.Error(),
		})
		return ""
	}
	return textnorm.Captions(doc)
}

// pickTrack prefers English and skips tracks without a URL.
func pickTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	var first *CaptionTrack
	for i := range tracks {
		t := tracks[i]
		if strings.TrimSpace(t.BaseURL) == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(t.LanguageCode), "en") {
			return t, true
		}
		if first == nil {
			first = &tracks[i]
		}
	}
	if first == nil {
		return CaptionTrack{}, false
	}
	return *first, true
}

// transcribeAudio streams the best audio-only format into the transcriber,
// bounded by FallbackTimeout. Every failure here is terminal.
func (y *YouTubeExtractor) transcribeAudio(ctx context.Context, videoID string) (string, error) {
	const op = "youtube.audio_fallback"
	noTranscript := func(detail string, err error) error {
		return &failure.Error{Kind: failure.NoTranscriptAvailable, Op: op, Detail: detail, Err: err}
	}
	if y.Audio == nil {
		return "", noTranscript("audio transcription not configured", nil)
	}
	if y.FallbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.FallbackTimeout)
		defer cancel()
	}

	start := time.Now()
	streamURL, mimeType, err := y.Source.AudioStreamURL(ctx, videoID)
	if err != nil {
		return "", noTranscript("resolve audio stream", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return "", noTranscript("build audio request", err)
	}
	client := y.StreamClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", noTranscript("download audio", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", noTranscript("download audio", failure.Upstream(failure.FetchFailed, op, resp.StatusCode, string(body)))
	}

	text, err := y.Audio.Transcribe(ctx, resp.Body, mimeType)
	if err != nil {
		return "", noTranscript("transcribe audio", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", noTranscript("transcription was empty", nil)
	}
	telemetry.Info("youtube.audio_transcribed", map[string]any{
		"video_id":    videoID,
		"duration_ms": time.Since(start).Milliseconds(),
		"chars":       len(text),
	})
	return text, nil
}

func (y *YouTubeExtractor) cached(ctx context.Context, videoID string) (Result, bool) {
	if y.Cache == nil {
		return Result{}, false
	}
	raw, ok, err := y.Cache.Get(ctx, cache.TranscriptKey(videoID))
	if err != nil {
		telemetry.Warn("youtube.cache_get_failed", map[string]any{"video_id": videoID, "error": err.Error()})
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil || res.Empty() {
		return Result{}, false
	}
	return res, true
}

func (y *YouTubeExtractor) store(ctx context.Context, videoID string, res Result) {
	if y.Cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err == nil {
		err = y.Cache.Set(ctx, cache.TranscriptKey(videoID), string(raw), y.CacheTTL)
	}
	if err != nil {
		telemetry.Warn("youtube.cache_set_failed", map[string]any{"video_id": videoID, "error": err.Error()})
	}
}

// fetchCaptionDocument GETs a timedtext URL.
func fetchCaptionDocument(ctx context.Context, client *http.Client, trackURL string) (string, error) {
	const op = "youtube.caption_document"
	if _, err := url.Parse(trackURL); err != nil {
		return "", failure.Wrap(failure.InvalidInput, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", failure.Wrap(failure.InvalidInput, op, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return "", failure.Wrap(failure.FetchFailed, op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", failure.Wrap(failure.FetchFailed, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", failure.Upstream(failure.FetchFailed, op, resp.StatusCode, string(body))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", failure.Wrap(failure.FetchFailed, op, errors.New("empty caption document"))
	}
	return string(body), nil
}

