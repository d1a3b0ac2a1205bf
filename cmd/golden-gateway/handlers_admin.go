package main

import (
	"encoding/json"
	"log"
	"net/http"
)

// handleSimulateLoad toggles chaos mode. Unauthenticated by design: this is a
// demonstration service, not a production control plane.
func (g *gateway) handleSimulateLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	g.chaos.SetUnderLoad(req.Enabled)
	log.Printf("load simulation set to %v", req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"loadSimulation": req.Enabled})
}
