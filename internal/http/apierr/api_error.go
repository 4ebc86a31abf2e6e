package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	govalidator "github.com/go-playground/validator/v10"

	"github.com/tuanvumaihuynh/orderdesk/pkg/validator"
	"github.com/tuanvumaihuynh/orderdesk/pkg/zerror"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error response for the API.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *[]FieldError `json:"details,omitempty"`

	// StatusCode is the status code for the error response.
	StatusCode int `json:"-"`
}

func New(err error) ErrorResponse {
	return errorToErrorResponse(err)
}

var InternalServerErr = ErrorResponse{
	Code:       "INTERNAL_SERVER_ERROR",
	Message:    "an unknown error occurred",
	StatusCode: http.StatusInternalServerError,
}

func errorToErrorResponse(err error) ErrorResponse {
	// validator errors are checked first: handlers wrap them in a ZError
	// and the field details would otherwise be lost
	var validationErrs govalidator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]FieldError, len(validationErrs))
		for i, fe := range validationErrs {
			details[i] = FieldError{
				Field:   fe.Field(),
				Message: validator.ValidationErrorMessage(fe),
			}
		}

		return ErrorResponse{
			Code:       "VALIDATION_FAILED",
			Message:    "validation error",
			Details:    &details,
			StatusCode: http.StatusBadRequest,
		}
	}

	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return ErrorResponse{
			Code:       zErr.Code(),
			Message:    zErr.Msg(),
			StatusCode: ZErrorStatusToHTTPStatus(zErr.Status()),
		}
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		res := ErrorResponse{
			Code:       "VALIDATION_FAILED",
			Message:    reqErr.Error(),
			StatusCode: http.StatusBadRequest,
		}
		if reqErr.Parameter != nil {
			res.Details = &[]FieldError{{Field: reqErr.Parameter.Name, Message: reqErr.Reason}}
		}
		return res
	}

	if isDecodeErr(err) {
		return ErrorResponse{
			Code:       "MALFORMED_BODY",
			Message:    err.Error(),
			StatusCode: http.StatusBadRequest,
		}
	}

	return InternalServerErr
}

func ZErrorStatusToHTTPStatus(status zerror.Status) int {
	switch status {
	case zerror.StatusUnauthorized:
		return http.StatusUnauthorized
	case zerror.StatusForbidden:
		return http.StatusForbidden
	case zerror.StatusNotFound:
		return http.StatusNotFound
	case zerror.StatusUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case zerror.StatusConflict:
		return http.StatusConflict
	case zerror.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case zerror.StatusBadRequest:
		return http.StatusBadRequest
	case zerror.StatusValidationFailed:
		return http.StatusBadRequest
	case zerror.StatusUnknown, zerror.StatusInternalServerError:
		return http.StatusInternalServerError
	case zerror.StatusTimeout:
		return http.StatusGatewayTimeout
	case zerror.StatusNotImplemented:
		return http.StatusNotImplemented
	case zerror.StatusBadGateway:
		return http.StatusBadGateway
	case zerror.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isDecodeErr(err error) bool {
	var (
		e1 *json.SyntaxError
		e2 *json.UnmarshalTypeError
	)

	return errors.As(err, &e1) ||
		errors.As(err, &e2)
}
