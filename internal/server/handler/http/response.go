package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atinyakov/CoverCatalog/internal/models"
	"go.uber.org/zap"
)

const (
	msgBadJSON       = "Request must be JSON"
	msgMissingLogin  = "Username and password required"
	msgInvalidCreds  = "Invalid credentials"
	msgNotFound      = "Product not found"
	msgInternalError = "Internal server error"

	msgRouteNotFound    = "Not found"
	msgMethodNotAllowed = "Method not allowed"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps a service-layer error to its status code and
// reason. Unknown errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, models.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msgInvalidCreds)
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeJSON decodes the request body, which must hold exactly one JSON
// value, into v. Type mismatches on known fields are reported as a
// *models.ValidationError.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &models.ValidationError{
			Field:  typeErr.Field,
			Reason: "Invalid type for field: " + typeErr.Field,
		}
	}
	if err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
