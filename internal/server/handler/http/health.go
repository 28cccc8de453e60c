package http

import "net/http"

// Health reports that the service is up. It requires no authentication.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
