// This is a **mock authentication service** that issues JWT tokens for the
// export service during local development. Identity is not verified: the
// caller names the user and role it wants a token for.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gartstein/cafexport/internal/export/auth"
	"github.com/google/uuid"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	RoleID uuid.UUID `json:"role_id"`
}

// tokenHandler issues a token for the user_id and role_id query parameters.
// Missing ids are generated.
func tokenHandler(w http.ResponseWriter, r *http.Request) {
	secret := getEnv("JWT_SECRET", defaultSecret)

	userID, err := idParam(r, "user_id")
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	roleID, err := idParam(r, "role_id")
	if err != nil {
		http.Error(w, "invalid role_id", http.StatusBadRequest)
		return
	}

	token, err := auth.GenerateToken(userID, roleID, secret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token, UserID: userID, RoleID: roleID}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, "Failed to encode token", http.StatusInternalServerError)
	}
}

func idParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	port := getEnv("AUTH_PORT", defaultPort)
	http.HandleFunc("/token", tokenHandler)

	log.Printf("Authentication service running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
