package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/llm"
)

var mimeExtensions = map[string]string{
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
	"audio/m4a":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/mp4":    "mp4",
	"video/mp4":    "mp4",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/mpga":   "mp3",
	"audio/oga":    "oga",
	"audio/ogg":    "ogg",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/webm":   "webm",
	"video/webm":   "webm",
}

var audioExtensions = map[string]bool{
	"flac": true, "m4a": true, "mp3": true, "mp4": true, "mpeg": true,
	"mpga": true, "oga": true, "ogg": true, "wav": true, "webm": true,
}

// AudioExtension maps a content-type or file-name hint to a supported extension.
// An empty hint defaults to mp3.
func AudioExtension(hint string) (string, bool) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return "mp3", true
	}
	if mt, _, err := mime.ParseMediaType(hint); err == nil {
		if ext, ok := mimeExtensions[mt]; ok {
			return ext, true
		}
		if _, sub, found := strings.Cut(mt, "/"); found {
			if ext, ok := inferExtension(strings.TrimPrefix(sub, "x-")); ok {
				return ext, true
			}
		}
	}
	return inferExtension(strings.TrimPrefix(filepath.Ext(hint), "."))
}

func inferExtension(ext string) (string, bool) {
	if !audioExtensions[ext] {
		return "", false
	}
	switch ext {
	case "mpeg", "mpga":
		return "mp3", true
	}
	return ext, true
}

// AudioTranscriber writes an audio stream to a scoped temp file and hands it to
// the speech-to-text backend.
type AudioTranscriber struct {
	Backend llm.Transcriber
	TempDir string
}

// Transcribe returns flat text for the audio in r. The temp file is removed on every path.
func (a *AudioTranscriber) Transcribe(ctx context.Context, r io.Reader, mimeHint string) (string, error) {
	const op = "audio.transcribe"
	ext, ok := AudioExtension(mimeHint)
	if !ok {
		return "", failure.New(failure.UnsupportedAudioFormat, op, fmt.Sprintf("unsupported audio type %q", mimeHint))
	}

	f, err := os.CreateTemp(a.TempDir, "notesum-audio-*."+ext)
	if err != nil {
		return "", fmt.Errorf("%s: create temp file: %w", op, err)
	}
	defer os.Remove(f.Name())

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", failure.Wrap(failure.FetchFailed, op, fmt.Errorf("buffer audio: %w", err))
	}
	if written == 0 {
		return "", nil
	}

	text, err := a.Backend.Transcribe(ctx, f.Name())
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, err)
	}
	return strings.TrimSpace(text), nil
}

// AudioExtractor transcribes an uploaded recording or a remote audio URL.
type AudioExtractor struct {
	Locator      Locator
	Signer       Signer
	Downloader   *Downloader
	Transcriber  *AudioTranscriber
	SignedURLTTL time.Duration
}

func (a *AudioExtractor) Extract(ctx context.Context, documentID string) (Result, error) {
	loc, err := a.Locator.Locate(ctx, documentID)
	if err != nil {
		return Result{}, err
	}
	downloadURL, sourceURL, err := resolveDownloadURL(ctx, a.Signer, loc, a.SignedURLTTL)
	if err != nil {
		return Result{}, err
	}

	body, contentType, err := a.Downloader.Open(ctx, downloadURL)
	if err != nil {
		return Result{}, err
	}
	defer body.Close()

	hint := loc.MimeType
	if hint == "" || hint == "application/octet-stream" {
		hint = contentType
	}
	if _, ok := AudioExtension(hint); !ok && loc.StorageKey != "" {
		hint = loc.StorageKey
	}
	text, err := a.Transcriber.Transcribe(ctx, body, hint)
	if err != nil {
		return Result{}, err
	}
	res := Result{Text: text, Title: loc.Title, SourceURL: sourceURL}
	if res.Empty() {
		res.Warnings = append(res.Warnings, "no speech detected")
	}
	return res, nil
}

// resolveDownloadURL signs a storage key, or passes through an http(s) location.
func resolveDownloadURL(ctx context.Context, signer Signer, loc Location, ttl time.Duration) (string, string, error) {
	if loc.StorageKey == "" {
		if _, ok := parseHTTPURL(loc.URL); ok {
			return loc.URL, loc.URL, nil
		}
		return "", "", failure.New(failure.InvalidInput, "extract.locate", "document has no stored file or URL")
	}
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	signed, err := signer.SignedURL(ctx, loc.StorageKey, ttl)
	if err != nil {
		return "", "", fmt.Errorf("sign download url: %w", err)
	}
	return signed, loc.StorageKey, nil
}
