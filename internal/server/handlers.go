package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/snipsd/snipsd/internal/core"
	"github.com/snipsd/snipsd/internal/core/model"
	"github.com/snipsd/snipsd/internal/store"
)

func (s *Server) listSnippets(c *gin.Context) {
	snippets, err := s.Store.ListSnippets(c.Request.Context())
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to list snippets")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snippets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snippets": snippets})
}

func (s *Server) createSnippet(c *gin.Context) {
	var in model.CreateSnippetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and content are required"})
		return
	}

	snip, err := s.Store.CreateSnippet(c.Request.Context(), in)
	if errors.Is(err, store.ErrDuplicateName) {
		c.JSON(http.StatusConflict, gin.H{"error": "snippet name already exists"})
		return
	}
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to create snippet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create snippet"})
		return
	}
	c.JSON(http.StatusCreated, snip)
}

func (s *Server) getSnippet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	snip, err := s.Store.GetSnippet(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "snippet not found"})
		return
	}
	if err != nil {
		s.Logger.Error().Err(err).Int64("id", id).Msg("failed to get snippet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get snippet"})
		return
	}
	c.JSON(http.StatusOK, snip)
}

func (s *Server) updateSnippet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in model.UpdateSnippetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	snip, err := s.Store.UpdateSnippet(c.Request.Context(), id, in)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "snippet not found"})
	case errors.Is(err, store.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": "snippet name already exists"})
	case err != nil:
		s.Logger.Error().Err(err).Int64("id", id).Msg("failed to update snippet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update snippet"})
	default:
		c.JSON(http.StatusOK, snip)
	}
}

func (s *Server) deleteSnippet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := s.Store.DeleteSnippet(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "snippet not found"})
		return
	}
	if err != nil {
		s.Logger.Error().Err(err).Int64("id", id).Msg("failed to delete snippet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete snippet"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.Store.ListTags(c.Request.Context())
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to list tags")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

type analyzeRequest struct {
	Threshold *float64 `json:"threshold"`
}

func (s *Server) analyzeDuplicates(c *gin.Context) {
	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	threshold := s.Cfg.Dedupe.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold <= 0 || threshold > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be in (0, 1]"})
		return
	}

	// Snapshot the store now; the session analyzes this snapshot even if
	// the live store changes during the run.
	records, err := s.Store.ListSnippets(c.Request.Context())
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to snapshot snippets")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snippets"})
		return
	}

	runID, err := s.Session.Start(records, threshold)
	if errors.Is(err, core.ErrAnalysisInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "analysis already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start analysis"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "state": s.Session.State()})
}

func (s *Server) getDuplicates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"run_id": s.Session.RunID(),
		"state":  s.Session.State(),
		"groups": s.Session.Groups(),
	})
}

type mergeRequest struct {
	KeepID int64 `json:"keep_id"`
}

func (s *Server) mergeDuplicates(c *gin.Context) {
	index, ok := parseGroupIndex(c)
	if !ok {
		return
	}

	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := s.Session.ResolveMerge(c.Request.Context(), index, req.KeepID)
	if !s.writeResolveError(c, err) {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) deleteDuplicates(c *gin.Context) {
	index, ok := parseGroupIndex(c)
	if !ok {
		return
	}

	result, err := s.Session.ResolveDelete(c.Request.Context(), index)
	if !s.writeResolveError(c, err) {
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeResolveError maps session errors to HTTP responses. Partial failures
// are not errors: they come back as a 200 with per-id detail so the caller
// can render per-item outcomes.
func (s *Server) writeResolveError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrNotReviewing):
		c.JSON(http.StatusConflict, gin.H{"error": "no analysis results to review"})
	case errors.Is(err, core.ErrNoSuchGroup):
		c.JSON(http.StatusNotFound, gin.H{"error": "no such duplicate group"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
	return false
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snippet id"})
		return 0, false
	}
	return id, true
}

func parseGroupIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group index"})
		return 0, false
	}
	return index, true
}
