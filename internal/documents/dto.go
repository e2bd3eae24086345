package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID     string    `json:"documentId"`
	Title          string    `json:"title"`
	SourceType     string    `json:"sourceType"`
	SourceLocation string    `json:"sourceLocation"`
	MimeType       string    `json:"mimeType,omitempty"`
	SizeBytes      int64     `json:"sizeBytes,omitempty"`
	Status         string    `json:"status"`
	HasTranscript  bool      `json:"hasTranscript"`
	Transcript     *string   `json:"transcript,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToResponse renders doc; the transcript is only included when withTranscript is set.
func ToResponse(doc Document, withTranscript bool) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:     doc.ID,
		Title:          doc.Title,
		SourceType:     string(doc.SourceType),
		SourceLocation: doc.SourceLocation,
		MimeType:       doc.MimeType,
		SizeBytes:      doc.SizeBytes,
		Status:         string(doc.Status),
		HasTranscript:  doc.HasTranscript(),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if withTranscript {
		resp.Transcript = doc.Transcript
	}
	return resp
}

type createLinkRequest struct {
	URL        string `json:"url"`
	SourceType string `json:"sourceType"`
	Title      string `json:"title"`
}
