package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	headerPrefix = "St-"
)

func (c controller) getHeader(r *http.Request, key string) string {
	return r.Header.Get(headerPrefix + key)
}

func (c controller) getQueryParam(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", fmt.Errorf("%s was not provided", key)
	}

	return value, nil
}

func (c controller) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.Warn("failed to write json", "error", err)
	}
}
