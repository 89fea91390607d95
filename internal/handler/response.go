package handler

import (
	"encoding/json"
	"net/http"
)

// response is the envelope every endpoint answers with. Clients branch
// on the success flag before reading anything else.
type response map[string]any

func respondJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondSuccess(w http.ResponseWriter, status int, body response) {
	out := response{"success": true}
	for k, v := range body {
		out[k] = v
	}
	respondJSON(w, status, out)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{"success": false, "message": message})
}

const internalErrorMessage = "Something went wrong"
