package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/neurolocus/internal/model"
	"github.com/ppiankov/neurolocus/internal/pipeline"
)

// ParseRequest is the body of POST /api/neuro/parse_findings
type ParseRequest struct {
	Text string `json:"text"`
}

// InterviewRequest is the body of POST /api/neuro/extract_interview_findings
type InterviewRequest struct {
	Messages []pipeline.Message `json:"messages"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func errorBody(code, msg string) ErrorResponse {
	return ErrorResponse{Error: code, Message: msg}
}

func (s *Server) respondError(c *gin.Context, status int, code, msg string) {
	body := errorBody(code, msg)
	body.RequestID = c.GetString(requestIDKey)
	c.AbortWithStatusJSON(status, body)
}

// parseFindings localizes free text. A missing or empty text is not an error.
func (s *Server) parseFindings(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		s.respondError(c, http.StatusBadRequest, "invalid_request", "body must be a JSON object with a text field")
		return
	}

	c.JSON(http.StatusOK, s.localize(c.FullPath(), func() *model.ParsedResult {
		return s.localizer.Localize(req.Text)
	}))
}

// extractInterviewFindings localizes the string contents of a transcript
func (s *Server) extractInterviewFindings(c *gin.Context) {
	var req InterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		s.respondError(c, http.StatusBadRequest, "invalid_request", "body must be a JSON object with a messages array")
		return
	}

	c.JSON(http.StatusOK, s.localize(c.FullPath(), func() *model.ParsedResult {
		return s.localizer.LocalizeTranscript(req.Messages)
	}))
}

func (s *Server) localize(route string, run func() *model.ParsedResult) *model.ParsedResult {
	start := time.Now()
	res := run()
	s.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	s.metrics.observeResult(res)
	return res
}

func (s *Server) syndromes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"syndromes": s.localizer.Knowledge().Syndromes()})
}

func (s *Server) cranialNerves(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cranialNerves": s.localizer.Knowledge().CranialNerves()})
}

func (s *Server) territories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"territories": s.localizer.Knowledge().Territories()})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"knowledgeVersion": s.localizer.Knowledge().Version(),
	})
}
