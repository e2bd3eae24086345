package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal   atomic.Uint64
	documentsFailedTotal      atomic.Uint64
	documentsEmptyTotal       atomic.Uint64
	youtubeAudioFallbackTotal atomic.Uint64
	summariesPersistFailed    atomic.Uint64
	workerJobsTotal           atomic.Uint64
	workerJobsDropped         atomic.Uint64

	processingDuration = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 180000, 360000})
)

// IncDocumentsProcessed counts a document that reached summarized.
func IncDocumentsProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentsFailed counts a processing run that returned an error.
func IncDocumentsFailed() {
	documentsFailedTotal.Add(1)
}

// IncDocumentsEmpty counts an extraction that legitimately produced no text.
func IncDocumentsEmpty() {
	documentsEmptyTotal.Add(1)
}

// IncYouTubeAudioFallback counts transcripts obtained through audio transcription.
func IncYouTubeAudioFallback() {
	youtubeAudioFallbackTotal.Add(1)
}

// IncSummariesPersistFailed counts summaries generated but not stored.
func IncSummariesPersistFailed() {
	summariesPersistFailed.Add(1)
}

// IncWorkerJobs counts queue messages picked up by a worker.
func IncWorkerJobs() {
	workerJobsTotal.Add(1)
}

// IncWorkerJobsDropped counts queue messages deleted without a successful run.
func IncWorkerJobsDropped() {
	workerJobsDropped.Add(1)
}

// ObserveProcessingDurationMs records a processDocument duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_processed_total", "Documents summarized", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Document processing runs that failed", documentsFailedTotal.Load())
	writeCounter(&buf, "documents_empty_total", "Documents with no extractable text", documentsEmptyTotal.Load())
	writeCounter(&buf, "youtube_audio_fallback_total", "YouTube transcripts produced from audio", youtubeAudioFallbackTotal.Load())
	writeCounter(&buf, "summaries_persist_failed_total", "Summaries returned without being stored", summariesPersistFailed.Load())
	writeCounter(&buf, "worker_jobs_total", "Queue jobs received", workerJobsTotal.Load())
	writeCounter(&buf, "worker_jobs_dropped_total", "Queue jobs dropped as non-retryable", workerJobsDropped.Load())
	writeHistogram(&buf, "processing_duration_ms", "processDocument duration in milliseconds", processingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose bound covers it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

// writeHistogram emits cumulative bucket counts.
func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
