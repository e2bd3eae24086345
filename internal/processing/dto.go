package processing

import (
	"notesum-backend/internal/documents"
	"notesum-backend/internal/summaries"
	"notesum-backend/internal/summarize"
)

// OutcomeResponse is the JSON shape of a processing run.
type OutcomeResponse struct {
	Document  documents.DocumentResponse `json:"document"`
	Summary   *summaries.Response        `json:"summary"`
	Empty     bool                       `json:"empty"`
	Message   string                     `json:"message,omitempty"`
	Warnings  []string                   `json:"warnings,omitempty"`
	Persisted bool                       `json:"persisted"`
}

func toOutcomeResponse(out Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Document:  documents.ToResponse(out.Document, false),
		Empty:     out.Empty,
		Message:   out.Message,
		Warnings:  out.Warnings,
		Persisted: out.Persisted,
	}
	if out.Summary != nil {
		s := summaries.ToResponse(*out.Summary)
		resp.Summary = &s
	}
	return resp
}

type listItemResponse struct {
	summaries.Response
	Title          string `json:"title"`
	DocumentStatus string `json:"documentStatus,omitempty"`
}

type editSummaryRequest struct {
	Content string `json:"content"`
}

type chatRequest struct {
	Question string           `json:"question"`
	History  []summarize.Turn `json:"history"`
}
