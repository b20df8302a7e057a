package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/petshop-plataforma/sales-service/internal/errors"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	WriteJson(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMessage(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJson(w, statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error maps an AppError onto its status code; anything else becomes a
// generic 500 so wrapped internals never reach the client.
func Error(w http.ResponseWriter, err error) {

	statusCode := http.StatusInternalServerError
	message := "An unexpected error occurred"

	if appErr, ok := errors.IsAppError(err); ok {
		statusCode = appErr.StatusCode
		message = appErr.Message

		if appErr.Detail != "" {
			message = fmt.Sprintf("%s: %s", message, appErr.Detail)
		}
	}

	WriteJson(w, statusCode, APIResponse{
		Success: false,
		Message: message,
	})
}

// ValidationError flattens validator errors into one message string.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) {

	var errMsgs []string

	for _, err := range errs {

		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field %s is required", err.Field())
		case "gt":
			message = fmt.Sprintf("Field %s must be greater than %s", err.Field(), err.Param())
		case "min":
			message = fmt.Sprintf("Field %s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("Field %s must be at most %s characters", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("Field %s must be one of [%s]", err.Field(), err.Param())
		default:
			message = fmt.Sprintf("Field %s is invalid: %s=%s", err.Field(), err.Tag(), err.Param())
		}

		errMsgs = append(errMsgs, message)

	}

	WriteJson(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Message: strings.Join(errMsgs, "; "),
	})
}
