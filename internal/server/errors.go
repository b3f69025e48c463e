package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	catalogdomain "github.com/stackbill/tradequote/internal/catalog/domain"
	customerdomain "github.com/stackbill/tradequote/internal/customer/domain"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	quotedomain "github.com/stackbill/tradequote/internal/quote/domain"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	// Engine failures carry the line index and SKU so callers can point
	// at the offending row.
	var lineErr *pricingdomain.LineError
	if errors.As(err, &lineErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "computation_error",
			Message: "quote computation failed",
			Errors: []ValidationError{
				{
					Field:   fmt.Sprintf("items[%d]", lineErr.Index),
					Code:    lineErr.Err.Error(),
					Message: fmt.Sprintf("sku %s: %s", lineErr.SKU, lineErr.Err.Error()),
				},
			},
		}
	}

	switch {
	case errors.Is(err, quotedomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}

	case errors.Is(err, quotedomain.ErrApprovalConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "quote was approved or rejected by another request",
		}

	case errors.Is(err, quotedomain.ErrInvalidTransition),
		errors.Is(err, quotedomain.ErrNotEditable):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: "operation not allowed in the quote's current status",
		}

	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		return http.StatusConflict, errorPayload{
			Type:    "insufficient_stock",
			Message: "insufficient stock to approve quote",
		}

	case errors.Is(err, catalogdomain.ErrDuplicateSKU),
		errors.Is(err, taxdomain.ErrDuplicateCode):
		return http.StatusConflict, errorPayload{
			Type:    "duplicate",
			Message: "resource already exists",
		}

	case errors.Is(err, quotedomain.ErrInvalidID),
		errors.Is(err, quotedomain.ErrInvalidPageToken),
		errors.Is(err, quotedomain.ErrNoItems),
		errors.Is(err, quotedomain.ErrDuplicateSKU),
		errors.Is(err, quotedomain.ErrInvalidCharge),
		errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidUnitCost),
		errors.Is(err, catalogdomain.ErrInvalidComponent),
		errors.Is(err, taxdomain.ErrInvalidID),
		errors.Is(err, taxdomain.ErrInvalidTaxCode),
		errors.Is(err, taxdomain.ErrInvalidTaxTier),
		errors.Is(err, taxdomain.ErrInvalidTaxRate):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
