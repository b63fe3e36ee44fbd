// Package api implements the JSON HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dukan-app/dukan/internal/domain"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders a domain error as JSON. Internal errors are logged with
// their cause but reported to the client without details.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	if code == domain.EINTERNAL {
		logger.Error("request failed", "error", err)
		message = "internal error"
	}
	writeJSON(w, ErrorCodeToHTTPStatus(code), errorBody{Code: code, Error: message})
}

// decode reads a JSON request body into dst and runs struct validation.
func decode(r *http.Request, validate *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("api.decode", "request body is required")
		}
		return domain.Invalid("api.decode", "malformed JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return domain.Invalid("api.validate",
				fmt.Sprintf("field %s failed validation (%s)", f.Field(), f.Tag()))
		}
		return domain.Invalid("api.validate", "invalid request body")
	}
	return nil
}
