package processing

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/shared/server/middleware"
	"notesum-backend/internal/shared/server/respond"
	"notesum-backend/internal/summaries"
)

// Handler wires HTTP handlers to the processing service.
type Handler struct {
	Svc     *Service
	limiter *regenerateLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, limiter: newRegenerateLimiter(regenerateWindow, nil)}
}

// RegisterRoutes attaches processing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/process", h.process)
	rg.POST("/documents/:id/regenerate", h.regenerate)
	rg.GET("/documents/:id/summary", h.getSummary)
	rg.PUT("/documents/:id/summary", h.editSummary)
	rg.DELETE("/documents/:id/summary", h.deleteSummary)
	rg.DELETE("/documents/:id", h.deleteDocument)
	rg.POST("/documents/:id/chat", h.chat)
	rg.GET("/summaries", h.listSummaries)
}

func (h *Handler) process(c *gin.Context) {
	h.run(c, false)
}

func (h *Handler) regenerate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if !h.limiter.Allow(userID, c.Param("id")) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Please wait before regenerating this summary again", nil)
		return
	}
	h.run(c, true)
}

func (h *Handler) run(c *gin.Context, force bool) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)
	ctx := c.Request.Context()

	if c.Query("async") == "true" {
		doc, err := h.Svc.Enqueue(ctx, userID, documentID, force)
		if err == nil {
			c.Set(middleware.SourceTypeKey, string(doc.SourceType))
			respond.Accepted(c, gin.H{"documentId": doc.ID, "status": doc.Status, "queued": true})
			return
		}
		if !errors.Is(err, ErrQueueNotConfigured) {
			respond.Failure(c, err)
			return
		}
	}

	var (
		out Outcome
		err error
	)
	if force {
		out, err = h.Svc.Regenerate(ctx, userID, documentID)
	} else {
		out, err = h.Svc.ProcessDocument(ctx, userID, documentID)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.Set("errorCause", "client went away")
			c.Status(499)
			return
		}
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.SourceTypeKey, string(out.Document.SourceType))
	c.Set(middleware.StatusTransitionKey, string(out.Document.Status))
	respond.OK(c, toOutcomeResponse(out))
}

func (h *Handler) getSummary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	summary, err := h.Svc.GetSummary(c.Request.Context(), userID, documentID)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, summaries.ToResponse(summary))
}

func (h *Handler) editSummary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	var req editSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	summary, err := h.Svc.EditSummary(c.Request.Context(), userID, documentID, req.Content)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, summaries.ToResponse(summary))
}

func (h *Handler) deleteSummary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	if err := h.Svc.DeleteSummary(c.Request.Context(), userID, documentID); err != nil {
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, "summarized->pending")
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	if err := h.Svc.DeleteDocument(c.Request.Context(), userID, documentID); err != nil {
		respond.Failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) chat(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	answer, err := h.Svc.Chat(c.Request.Context(), userID, documentID, req.Question, req.History)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}

func (h *Handler) listSummaries(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.ListSummaries(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Failure(c, err)
		return
	}

	resp := make([]listItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, listItemResponse{
			Response:       summaries.ToResponse(item.Summary),
			Title:          item.Title,
			DocumentStatus: string(item.Status),
		})
	}
	respond.OK(c, gin.H{"summaries": resp, "limit": limit, "offset": offset})
}
