package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var errEmptyBody = errors.New("empty request body")

// readBody parses a JSON request body into T. A missing Content-Type is
// treated as JSON.
func readBody[T any](r *http.Request) (T, error) {
	var body T

	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		return body, fmt.Errorf("failed to read request body: unsupported content type %s", contentType)
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return body, fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if len(bodyBytes) == 0 {
		return body, errEmptyBody
	}

	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return body, fmt.Errorf("failed to read request body: %w", err)
	}

	return body, nil
}

// writeJSON writes data with statusCode, or 500 if data cannot be encoded.
func writeJSON(w http.ResponseWriter, lg *zap.SugaredLogger, data any, statusCode int) {
	response, err := json.Marshal(data)
	if err != nil {
		lg.Errorf("failed to encode response: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(response)
}
