package extract

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"

	"notesum-backend/internal/failure"
)

// KkdaiSource implements VideoSource with github.com/kkdai/youtube.
type KkdaiSource struct {
	client     *youtube.Client
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewKkdaiSource wraps httpClient for both the innertube API and caption downloads.
// ratePerSecond caps video lookups and caption fetches together; 0 disables it.
func NewKkdaiSource(httpClient *http.Client, ratePerSecond float64) *KkdaiSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	s := &KkdaiSource{
		client:     &youtube.Client{HTTPClient: httpClient},
		httpClient: httpClient,
	}
	if ratePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return s
}

func (s *KkdaiSource) VideoInfo(ctx context.Context, videoID string) (VideoInfo, error) {
	if err := s.wait(ctx); err != nil {
		return VideoInfo{}, err
	}
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return VideoInfo{}, classifyYouTubeErr("youtube.video_info", err)
	}
	info := VideoInfo{
		Title:           video.Title,
		DurationSeconds: int(video.Duration.Seconds()),
	}
	for _, t := range video.CaptionTracks {
		info.CaptionTracks = append(info.CaptionTracks, CaptionTrack{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Kind:         t.Kind,
		})
	}
	return info, nil
}

func (s *KkdaiSource) CaptionDocument(ctx context.Context, trackURL string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return fetchCaptionDocument(ctx, s.httpClient, trackURL)
}

// AudioStreamURL picks the highest-bitrate audio-only format, falling back to
// any format that carries audio.
func (s *KkdaiSource) AudioStreamURL(ctx context.Context, videoID string) (string, string, error) {
	const op = "youtube.audio_stream"
	if err := s.wait(ctx); err != nil {
		return "", "", err
	}
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", "", classifyYouTubeErr(op, err)
	}
	withAudio := video.Formats.WithAudioChannels()
	if len(withAudio) == 0 {
		return "", "", failure.New(failure.UpstreamError, op, "no audio formats")
	}

	best := -1
	for i, f := range withAudio {
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best < 0 || f.Bitrate > withAudio[best].Bitrate {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	format := withAudio[best]

	streamURL, err := s.client.GetStreamURLContext(ctx, video, &format)
	if err != nil {
		return "", "", classifyYouTubeErr(op, err)
	}
	mimeType, _, _ := strings.Cut(format.MimeType, ";")
	return streamURL, strings.TrimSpace(mimeType), nil
}

func (s *KkdaiSource) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return failure.Wrap(failure.UpstreamError, "youtube.rate_limit", err)
	}
	return nil
}

func classifyYouTubeErr(op string, err error) error {
	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		return failure.Upstream(failure.UpstreamError, op, int(status), err.Error())
	}
	return failure.Wrap(failure.UpstreamError, op, err)
}

var _ VideoSource = (*KkdaiSource)(nil)
