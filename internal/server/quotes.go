package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stackbill/tradequote/internal/observability"
	quotedomain "github.com/stackbill/tradequote/internal/quote/domain"
)

// actor identifies who performed the request for audit purposes. There
// is no authentication layer; the header is trusted operator input.
func actor(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader("X-Actor")); v != "" {
		return v
	}
	return "system"
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req quotedomain.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.ValidationFailures.WithLabelValues("quote").Inc()
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Actor = actor(c)

	resp, err := s.quoteSvc.CreateDraft(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuote(c *gin.Context) {
	var req quotedomain.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.ValidationFailures.WithLabelValues("quote").Inc()
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Actor = actor(c)

	resp, err := s.quoteSvc.UpdateDraft(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ComputeQuote(c *gin.Context) {
	resp, err := s.quoteSvc.Compute(c.Request.Context(), strings.TrimSpace(c.Param("id")), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitQuote(c *gin.Context) {
	resp, err := s.quoteSvc.Submit(c.Request.Context(), strings.TrimSpace(c.Param("id")), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveQuote(c *gin.Context) {
	resp, err := s.quoteSvc.Approve(c.Request.Context(), strings.TrimSpace(c.Param("id")), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectQuote(c *gin.Context) {
	resp, err := s.quoteSvc.Reject(c.Request.Context(), strings.TrimSpace(c.Param("id")), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuote(c *gin.Context) {
	resp, err := s.quoteSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListQuotes(c *gin.Context) {
	var query quotedomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
