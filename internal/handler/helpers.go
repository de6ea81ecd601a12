package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medrag/internal/ai"
	"github.com/xxxsen/medrag/internal/pkg/errcode"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
	"github.com/xxxsen/medrag/internal/pkg/response"
)

type errorMapping struct {
	target error
	status int
	code   int
}

// Caller faults come first and answer 400 with the error text; everything
// else is a server side failure and answers 500 with a fixed message.
var errorMappings = []errorMapping{
	{appErr.ErrUnsupportedFormat, http.StatusBadRequest, errcode.ErrUnsupportedFormat},
	{appErr.ErrPayloadTooLarge, http.StatusBadRequest, errcode.ErrPayloadTooLarge},
	{appErr.ErrExtraction, http.StatusBadRequest, errcode.ErrExtraction},
	{appErr.ErrEmptyDocument, http.StatusBadRequest, errcode.ErrEmptyDocument},
	{appErr.ErrInvalidQuery, http.StatusBadRequest, errcode.ErrInvalidQuery},
	{appErr.ErrInvalid, http.StatusBadRequest, errcode.ErrInvalid},
	{appErr.ErrNotFound, http.StatusNotFound, errcode.ErrNotFound},
	{appErr.ErrTooMany, http.StatusTooManyRequests, errcode.ErrTooMany},
	{appErr.ErrEmbedding, http.StatusInternalServerError, errcode.ErrEmbedding},
	{appErr.ErrPersistenceMismatch, http.StatusInternalServerError, errcode.ErrPersistence},
	{appErr.ErrPersistence, http.StatusInternalServerError, errcode.ErrPersistence},
	{appErr.ErrVectorSearch, http.StatusInternalServerError, errcode.ErrVectorSearch},
	{ai.ErrUnavailable, http.StatusInternalServerError, errcode.ErrAIUnavailable},
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status == http.StatusBadRequest || m.status == http.StatusNotFound {
			logger.Info("request rejected", zap.Error(err))
			response.Error(c, m.status, m.code, err.Error())
			return
		}
		logger.Error("request failed", zap.Error(err))
		response.Error(c, m.status, m.code, m.target.Error())
		return
	}
	logger.Error("request failed", zap.Error(err))
	response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
}
