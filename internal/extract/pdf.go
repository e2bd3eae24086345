package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/ledongthuc/pdf"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/telemetry"
	"notesum-backend/internal/textnorm"
)

const minMeaningfulPDFChars = 10

// KeySaver stores a derived artifact next to the original upload.
type KeySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// PDFExtractor downloads a stored PDF through a signed URL and reads its text layer.
type PDFExtractor struct {
	Locator      Locator
	Signer       Signer
	Downloader   *Downloader
	SignedURLTTL time.Duration
	// Artifacts, when set, receives a <key>.extracted.txt copy of the text.
	Artifacts KeySaver
}

// Extract returns an empty Result for zero-byte or image-only files and
// ParseFailed for bytes the parser rejects.
func (p *PDFExtractor) Extract(ctx context.Context, documentID string) (Result, error) {
	loc, err := p.Locator.Locate(ctx, documentID)
	if err != nil {
		return Result{}, err
	}
	downloadURL, sourceURL, err := resolveDownloadURL(ctx, p.Signer, loc, p.SignedURLTTL)
	if err != nil {
		return Result{}, err
	}

	data, err := p.Downloader.Bytes(ctx, downloadURL)
	if err != nil {
		return Result{}, err
	}
	res := Result{Title: loc.Title, SourceURL: sourceURL}
	if len(data) == 0 {
		res.Warnings = append(res.Warnings, "file is empty")
		return res, nil
	}

	text, err := readPDFText(data)
	if err != nil {
		return Result{}, failure.Wrap(failure.ParseFailed, "pdf.parse", err)
	}
	text = textnorm.Collapse(text)
	if meaningfulChars(text) < minMeaningfulPDFChars {
		res.Warnings = append(res.Warnings, "no text layer found")
		return res, nil
	}
	res.Text = text

	if p.Artifacts != nil && loc.StorageKey != "" {
		if _, err := p.Artifacts.SaveWithKey(ctx, loc.StorageKey+".extracted.txt", "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
			telemetry.Warn("pdf.artifact_save_failed", map[string]any{"document_id": documentID, "error": err.Error()})
		}
	}
	return res, nil
}

// readPDFText converts parser panics on malformed input into errors.
func readPDFText(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func meaningfulChars(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
