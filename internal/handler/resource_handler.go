package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/errcode"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
	"github.com/xxxsen/medrag/internal/pkg/response"
)

type RAGService interface {
	Ingest(ctx context.Context, data []byte, fileName, mimeType string) (*model.IngestResult, error)
	Search(ctx context.Context, query string, topK int) ([]model.SearchMatch, error)
	GetResource(ctx context.Context, id string) (*model.Resource, error)
}

type ResourceHandler struct {
	rag            RAGService
	maxUploadBytes int64
}

func NewResourceHandler(rag RAGService, maxUploadBytes int64) *ResourceHandler {
	return &ResourceHandler{rag: rag, maxUploadBytes: maxUploadBytes}
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *ResourceHandler) Ingest(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(c)
			return
		}
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		h.tooLarge(c)
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	reader := io.Reader(opened)
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(opened, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	fileName := filepath.Base(file.Filename)
	mimeType := strings.TrimSpace(file.Header.Get("Content-Type"))
	res, err := h.rag.Ingest(c.Request.Context(), data, fileName, mimeType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ResourceHandler) tooLarge(c *gin.Context) {
	handleError(c, fmt.Errorf("%w: limit is %s", appErr.ErrPayloadTooLarge, formatUploadLimit(h.maxUploadBytes)))
}

func (h *ResourceHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request body")
		return
	}
	matches, err := h.rag.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, matches)
}

func (h *ResourceHandler) Get(c *gin.Context) {
	res, err := h.rag.GetResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}
