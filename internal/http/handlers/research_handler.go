// README: Location research and photo analysis handlers.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dulich/internal/modules/research"
	"dulich/internal/modules/researchlog"
)

const (
	unreachableMessage   = "Không thể kết nối đến dịch vụ AI"
	geminiMissingMessage = "Chưa cấu hình GEMINI_API_KEY"
)

// RecentLister lists journaled research runs.
type RecentLister interface {
	Recent(ctx context.Context, limit int) ([]researchlog.Entry, error)
}

type ResearchHandler struct {
	research *research.Service
	log      RecentLister
	timeout  time.Duration
}

// NewResearchHandler creates the handler. log may be nil when the research
// log is not configured. timeout bounds a whole request and should be at
// least the provider timeout.
func NewResearchHandler(svc *research.Service, log RecentLister, timeout time.Duration) *ResearchHandler {
	if timeout <= 0 {
		timeout = research.DefaultTimeout + 10*time.Second
	}
	return &ResearchHandler{research: svc, log: log, timeout: timeout}
}

type locationResearchReq struct {
	LocationName string `json:"locationName"`
	SearchType   string `json:"searchType"`
}

type imageAnalyzeReq struct {
	ImageData string `json:"imageData"`
}

// LocationResearch handles POST /api/ollama/location-research.
func (h *ResearchHandler) LocationResearch(c *gin.Context) {
	var req locationResearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.LocationName) == "" {
		writeError(c, http.StatusBadRequest, research.ErrEmptySearchTerm.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	mode := research.ParseMode(req.SearchType)
	out, err := h.research.Research(ctx, req.LocationName, mode)
	if err != nil {
		writeResearchError(c, err)
		return
	}

	if mode == research.ModeHistoryOnly && !out.Fallback {
		writeData(c, gin.H{"history": out.History})
		return
	}
	writeOutcome(c, out)
}

// OllamaImageAnalyze handles POST /api/ollama/image-analyze.
func (h *ResearchHandler) OllamaImageAnalyze(c *gin.Context) {
	h.analyze(c, "ollama")
}

// GeminiImageAnalyze handles POST /api/gemini/image-analyze.
func (h *ResearchHandler) GeminiImageAnalyze(c *gin.Context) {
	h.analyze(c, "gemini")
}

func (h *ResearchHandler) analyze(c *gin.Context, provider string) {
	var req imageAnalyzeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.ImageData) == "" {
		writeError(c, http.StatusBadRequest, research.ErrMissingImage.Error())
		return
	}
	if !h.research.HasVision(provider) {
		msg := research.ErrProviderNotConfigured.Error()
		if provider == "gemini" {
			msg = geminiMissingMessage
		}
		writeError(c, http.StatusInternalServerError, msg)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.research.AnalyzeImage(ctx, provider, req.ImageData)
	if err != nil {
		writeResearchError(c, err)
		return
	}
	writeOutcome(c, out)
}

// Recent handles GET /api/research/recent?limit=N.
func (h *ResearchHandler) Recent(c *gin.Context) {
	if h.log == nil {
		writeError(c, http.StatusServiceUnavailable, "research log disabled")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.log.Recent(c.Request.Context(), limit)
	if err != nil {
		writeLogError(c, err)
		return
	}
	if entries == nil {
		entries = []researchlog.Entry{}
	}
	writeData(c, entries)
}

// writeOutcome reports an unreachable provider as success=false. Every other
// outcome, synthesized placeholders included, is a successful answer.
func writeOutcome(c *gin.Context, out research.Outcome) {
	if out.Reason == research.ReasonProviderUnreachable {
		msg := unreachableMessage
		if out.Failure != nil {
			msg = out.Failure.Error()
		}
		writeFallback(c, msg, out.Record)
		return
	}
	writeData(c, out.Record)
}
