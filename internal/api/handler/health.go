package handler

import (
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports process liveness. Dependency reachability is deliberately
// excluded: the service degrades gracefully when optional backends are down.
func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
