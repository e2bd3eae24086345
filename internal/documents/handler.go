package documents

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/shared/server/middleware"
	"notesum-backend/internal/shared/server/respond"
)

const maxUploadSize = 100 << 20 // 100MB, audio recordings run large

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.POST("/documents/link", h.createLink)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, c.PostForm("sourceType"), file)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, doc.ID)
	c.Set(middleware.SourceTypeKey, string(doc.SourceType))
	respond.Created(c, ToResponse(doc, false))
}

func (h *Handler) createLink(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Svc.CreateLink(c.Request.Context(), userID, req.URL, req.SourceType, req.Title)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, doc.ID)
	c.Set(middleware.SourceTypeKey, string(doc.SourceType))
	respond.Created(c, ToResponse(doc, false))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, ToResponse(doc, c.Query("include") == "transcript"))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Failure(c, err)
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, ToResponse(doc, false))
	}
	respond.OK(c, gin.H{"documents": resp, "limit": limit, "offset": offset})
}
