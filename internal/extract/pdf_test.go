package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/retry"
)

var fastRetry = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, Factor: 2, MaxDelay: 5 * time.Millisecond}

func pdfExtractor(srv *httptest.Server) *PDFExtractor {
	return &PDFExtractor{
		Locator:    fakeLocator{loc: Location{StorageKey: "pdf/doc.pdf", MimeType: "application/pdf", Title: "Report"}},
		Signer:     urlSigner{url: srv.URL + "/blob"},
		Downloader: NewDownloader(srv.Client(), fastRetry),
	}
}

func TestPDFZeroBytesIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	res, err := pdfExtractor(srv).Extract(context.Background(), "doc")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, "Report", res.Title)
	assert.NotEmpty(t, res.Warnings)
}

func TestPDFGarbageIsParseFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is definitely not a pdf document"))
	}))
	defer srv.Close()

	_, err := pdfExtractor(srv).Extract(context.Background(), "doc")
	require.Error(t, err)
	assert.Equal(t, failure.ParseFailed, failure.KindOf(err))
}

func TestPDFRetriesNotFoundWhileUploadPropagates(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.NotFound(w, r)
			return
		}
	}))
	defer srv.Close()

	res, err := pdfExtractor(srv).Extract(context.Background(), "doc")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, int32(3), hits.Load())
}

func TestPDFDoesNotRetryOtherStatuses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := pdfExtractor(srv).Extract(context.Background(), "doc")
	assert.Equal(t, failure.FetchFailed, failure.KindOf(err))
	assert.Equal(t, http.StatusForbidden, failure.StatusOf(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestPDFLocateError(t *testing.T) {
	p := &PDFExtractor{Locator: fakeLocator{err: failure.New(failure.NotFound, "documents.locate", "missing")}}
	_, err := p.Extract(context.Background(), "doc")
	assert.Equal(t, failure.NotFound, failure.KindOf(err))
}

func TestMeaningfulChars(t *testing.T) {
	assert.Equal(t, 0, meaningfulChars(" \n\t .,;- "))
	assert.Equal(t, 6, meaningfulChars("ab 12 çé"))
}

func TestRouterDispatch(t *testing.T) {
	r := &Router{}
	_, err := r.Extract(context.Background(), Source{Type: "docx"})
	assert.Equal(t, failure.InvalidInput, failure.KindOf(err))

	_, err = r.Extract(context.Background(), Source{Type: SourcePDF, DocumentID: "x"})
	assert.Error(t, err)
}
