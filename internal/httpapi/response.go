package httpapi

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response. Grounded on
// app/admin/controller/entity_query.go's writeJSON/writeError methods.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response. devMode additionally
// includes the error's message as a "stack" field, matching spec.md
// §7's "only when NODE_ENV=development" rule.
func writeError(w http.ResponseWriter, statusCode int, message string, devMode bool, err error) {
	body := map[string]interface{}{"error": message}
	if devMode && err != nil {
		body["stack"] = err.Error()
	}
	writeJSON(w, statusCode, body)
}

// writeValidationError writes a 400 with the allow-list of valid
// fields, per spec.md §7's InputValidation shape.
func writeValidationError(w http.ResponseWriter, message string, validFields []string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":       message,
		"validFields": validFields,
	})
}
