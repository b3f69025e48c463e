package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stackbill/tradequote/internal/observability"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
)

func (s *Server) CreateTaxRule(c *gin.Context) {
	var req taxdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.ValidationFailures.WithLabelValues("tax_rule").Inc()
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTaxRules(c *gin.Context) {
	var query struct {
		Code    string `form:"code"`
		Enabled *bool  `form:"enabled"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.List(c.Request.Context(), taxdomain.ListRequest{
		Code:      strings.TrimSpace(query.Code),
		IsEnabled: query.Enabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTaxRule(c *gin.Context) {
	var req taxdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.ValidationFailures.WithLabelValues("tax_rule").Inc()
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Code = strings.TrimSpace(c.Param("code"))

	resp, err := s.taxSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableTaxRule(c *gin.Context) {
	resp, err := s.taxSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
