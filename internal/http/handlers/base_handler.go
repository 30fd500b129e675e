// README: Base handler utilities (JSON envelopes, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dulich/internal/modules/research"
	"dulich/internal/modules/researchlog"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type dataResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeData(c *gin.Context, data any) {
	writeJSON(c, http.StatusOK, dataResponse{Success: true, Data: data})
}

// writeFallback answers 200 with success=false: the record is complete and
// usable, but it was synthesized rather than extracted.
func writeFallback(c *gin.Context, msg string, data any) {
	writeJSON(c, http.StatusOK, dataResponse{Success: false, Error: msg, Data: data})
}

func writeResearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, research.ErrEmptySearchTerm),
		errors.Is(err, research.ErrMissingImage),
		errors.Is(err, research.ErrInvalidImage),
		errors.Is(err, research.ErrUnknownMode):
		writeError(c, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, research.ErrProviderNotConfigured):
		writeError(c, http.StatusInternalServerError, rootMessage(err))
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, researchlog.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// rootMessage strips wrapping detail so clients see the sentinel text only.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		research.ErrEmptySearchTerm,
		research.ErrMissingImage,
		research.ErrInvalidImage,
		research.ErrUnknownMode,
		research.ErrProviderNotConfigured,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
