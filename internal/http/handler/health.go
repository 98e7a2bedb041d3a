package handler

import "net/http"

// Health answers liveness probes. It never touches the store.
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
