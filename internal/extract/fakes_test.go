package extract

import (
	"context"
	"os"
	"sync"
	"time"

	"notesum-backend/internal/failure"
)

type fakeVideoSource struct {
	info       VideoInfo
	infoErr    error
	captions   string
	captionErr error
	streamURL  string
	streamMime string
	streamErr  error

	mu           sync.Mutex
	infoCalls    int
	captionCalls int
}

func (f *fakeVideoSource) VideoInfo(context.Context, string) (VideoInfo, error) {
	f.mu.Lock()
	f.infoCalls++
	f.mu.Unlock()
	return f.info, f.infoErr
}

func (f *fakeVideoSource) CaptionDocument(context.Context, string) (string, error) {
	f.mu.Lock()
	f.captionCalls++
	f.mu.Unlock()
	return f.captions, f.captionErr
}

func (f *fakeVideoSource) AudioStreamURL(context.Context, string) (string, string, error) {
	return f.streamURL, f.streamMime, f.streamErr
}

// fakeTranscriber records the temp file it was handed and whether it existed.
type fakeTranscriber struct {
	text string
	err  error

	path     string
	existed  bool
	contents string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.path = path
	data, err := os.ReadFile(path)
	f.existed = err == nil
	f.contents = string(data)
	return f.text, f.err
}

type fakeLocator struct {
	loc Location
	err error
}

func (f fakeLocator) Locate(context.Context, string) (Location, error) {
	return f.loc, f.err
}

// urlSigner maps every storage key to a fixed URL.
type urlSigner struct{ url string }

func (s urlSigner) SignedURL(context.Context, string, time.Duration) (string, error) {
	return s.url, nil
}

func gone() error {
	return failure.Upstream(failure.UpstreamError, "fake", 410, "gone")
}
