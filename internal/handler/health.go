package handler

import "net/http"

// HandleHealth is a liveness check for load balancers and uptime monitors.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
