package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avoronin/cvmatch/internal/jobboard"
	"github.com/avoronin/cvmatch/internal/matching"
	"github.com/avoronin/cvmatch/internal/resume"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type matchRequest struct {
	DocumentID    string `json:"document_id" binding:"required"`
	Location      string `json:"location"`
	ResultsWanted int    `json:"results_wanted"`
	IsRemote      *bool  `json:"is_remote"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) matchJobs(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	remote := true
	if req.IsRemote != nil {
		remote = *req.IsRemote
	}

	result, err := s.pipeline.Match(c.Request.Context(), matching.Request{
		DocumentID: req.DocumentID,
		Location:   req.Location,
		Results:    req.ResultsWanted,
		RemoteOnly: remote,
	})
	if err != nil {
		s.writeMatchError(c, req.DocumentID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) writeMatchError(c *gin.Context, documentID string, err error) {
	switch {
	case errors.Is(err, resume.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	case errors.Is(err, matching.ErrEmbeddingPending):
		c.JSON(http.StatusConflict, gin.H{"error": "embedding not generated yet, please wait for processing to complete"})
	case errors.Is(err, jobboard.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "job search sources unavailable"})
	default:
		s.logger.Error("match request failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// searchJobs proxies a direct board search without matching.
func (s *Server) searchJobs(c *gin.Context) {
	params := jobboard.SearchParams{
		Query:      c.DefaultQuery("search_term", "software engineer"),
		Location:   c.DefaultQuery("location", jobboard.DefaultLocation),
		Results:    jobboard.DefaultResults,
		RemoteOnly: true,
	}

	if raw := c.Query("results_wanted"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "results_wanted must be a positive integer"})
			return
		}
		params.Results = value
	}

	if raw := c.Query("is_remote"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_remote must be a boolean"})
			return
		}
		params.RemoteOnly = value
	}

	postings, err := s.searcher.Search(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, jobboard.ErrUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "job search sources unavailable"})
			return
		}
		s.logger.Error("search request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(postings), "jobs": postings})
}
