package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"kitchentales-backend/internal/token"
)

type AuthHandler struct {
	tokens *token.Service
}

func NewAuthHandler(tokens *token.Service) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
	}
}

// --- POST /jwt ---
// Signs whatever claim object the client sends (typically {email}) into a
// bearer token valid for two hours.

func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var claims map[string]any
	if err := json.NewDecoder(r.Body).Decode(&claims); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	tokenString, err := h.tokens.Issue(claims)
	if err != nil {
		log.Printf("Error signing token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
