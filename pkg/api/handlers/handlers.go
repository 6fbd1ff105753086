package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/repositories"
	"github.com/cbodonnell/ducktag/pkg/state"
	"github.com/gorilla/mux"
)

func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "OK"})
	}
}

// HandleGetState returns the last published replica view.
func HandleGetState(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, gameState)
	}
}

func HandleListMatches(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			l, err := strconv.Atoi(v)
			if err != nil || l < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = l
		}

		results, err := repository.ListMatchResults(r.Context(), limit)
		if err != nil {
			log.Error("failed to list match results: %v", err)
			http.Error(w, "Failed to list match results", http.StatusInternalServerError)
			return
		}
		writeJSON(w, results)
	}
}

func HandleGetMatch(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, err := strconv.ParseInt(mux.Vars(r)["matchID"], 10, 64)
		if err != nil {
			log.Error("failed to parse matchID: %v", err)
			http.Error(w, "Failed to parse matchID", http.StatusBadRequest)
			return
		}

		result, err := repository.GetMatchResult(r.Context(), matchID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Match not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get match result: %v", err)
			http.Error(w, "Failed to get match result", http.StatusInternalServerError)
			return
		}
		writeJSON(w, result)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
