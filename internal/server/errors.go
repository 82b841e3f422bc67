package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	dashboarddomain "github.com/maiscriancaoficial/affiliates/internal/dashboard/domain"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
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

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, commissiondomain.ErrConfigMissing):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isConfigValidationError(err),
		isGroupValidationError(err),
		isAffiliateValidationError(err),
		isCommissionValidationError(err),
		isWithdrawalValidationError(err):
		return true
	default:
		return false
	}
}

func isConfigValidationError(err error) bool {
	switch {
	case errors.Is(err, configdomain.ErrInvalidCommissionType),
		errors.Is(err, configdomain.ErrInvalidCommissionValue),
		errors.Is(err, configdomain.ErrInvalidCommissionEvent),
		errors.Is(err, configdomain.ErrInvalidWithdrawalMethod),
		errors.Is(err, configdomain.ErrInvalidMinWithdrawal),
		errors.Is(err, configdomain.ErrInvalidProcessingDays),
		errors.Is(err, configdomain.ErrInvalidCookieExpiration),
		errors.Is(err, configdomain.ErrInvalidSalesThreshold):
		return true
	default:
		return false
	}
}

func isGroupValidationError(err error) bool {
	switch {
	case errors.Is(err, groupdomain.ErrInvalidID),
		errors.Is(err, groupdomain.ErrInvalidName),
		errors.Is(err, groupdomain.ErrInvalidCommissionType),
		errors.Is(err, groupdomain.ErrInvalidCommissionValue),
		errors.Is(err, groupdomain.ErrInvalidCommissionEvent),
		errors.Is(err, groupdomain.ErrInvalidWithdrawalMethod),
		errors.Is(err, groupdomain.ErrInvalidMinWithdrawal):
		return true
	default:
		return false
	}
}

func isAffiliateValidationError(err error) bool {
	switch {
	case errors.Is(err, affiliatedomain.ErrInvalidID),
		errors.Is(err, affiliatedomain.ErrInvalidName),
		errors.Is(err, affiliatedomain.ErrInvalidEmail),
		errors.Is(err, affiliatedomain.ErrInvalidCode),
		errors.Is(err, affiliatedomain.ErrGroupNotFound),
		errors.Is(err, affiliatedomain.ErrInvalidCommissionType),
		errors.Is(err, affiliatedomain.ErrInvalidCommissionValue),
		errors.Is(err, affiliatedomain.ErrInvalidCommissionEvent),
		errors.Is(err, affiliatedomain.ErrInvalidWithdrawalMethod),
		errors.Is(err, affiliatedomain.ErrInvalidMinWithdrawal),
		errors.Is(err, affiliatedomain.ErrInvalidMonthlyLimit):
		return true
	default:
		return false
	}
}

func isCommissionValidationError(err error) bool {
	switch {
	case errors.Is(err, commissiondomain.ErrInvalidEventType),
		errors.Is(err, commissiondomain.ErrInvalidGross):
		return true
	default:
		return false
	}
}

func isWithdrawalValidationError(err error) bool {
	switch {
	case errors.Is(err, withdrawaldomain.ErrInvalidID),
		errors.Is(err, withdrawaldomain.ErrInvalidAmount):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, configdomain.ErrConcurrencyConflict),
		errors.Is(err, affiliatedomain.ErrEmailTaken),
		errors.Is(err, affiliatedomain.ErrCodeTaken),
		errors.Is(err, affiliatedomain.ErrInvalidTransition),
		errors.Is(err, affiliatedomain.ErrHasEvents),
		errors.Is(err, groupdomain.ErrGroupInUse),
		errors.Is(err, withdrawaldomain.ErrAlreadyPaid):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, configdomain.ErrNotFound),
		errors.Is(err, groupdomain.ErrNotFound),
		errors.Is(err, affiliatedomain.ErrNotFound),
		errors.Is(err, withdrawaldomain.ErrNotFound),
		errors.Is(err, commissiondomain.ErrInvalidAffiliate),
		errors.Is(err, withdrawaldomain.ErrInvalidAffiliate),
		errors.Is(err, dashboarddomain.ErrInvalidAffiliate),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "group_not_found" {
		return "group_id"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "group_not_found":
		return "group not found"
	default:
		return "invalid value"
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", ""
	}
}
