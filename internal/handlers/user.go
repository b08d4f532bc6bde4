package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"kitchentales-backend/internal/models"
	"kitchentales-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/resend/resend-go/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserStore is the slice of the user repository the handlers need.
type UserStore interface {
	Create(ctx context.Context, doc bson.M) (bson.ObjectID, error)
	All(ctx context.Context) ([]bson.M, error)
	FindDocByEmail(ctx context.Context, email string) (bson.M, error)
	AdjustCoins(ctx context.Context, email string, amount int) (*models.User, error)
	CreditCoins(ctx context.Context, email string, amount int) (*mongo.UpdateResult, error)
}

type UserHandler struct {
	users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{
		users: users,
	}
}

// --- POST /users ---

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user bson.M
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	email, _ := user["email"].(string)
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "email is required"})
		return
	}

	insertedID, err := h.users.Create(r.Context(), user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Duplicate signup is a no-op, signalled by the null inserted id.
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message":    "user already exists in KitchenTales",
				"insertedId": nil,
			})
			return
		}
		log.Printf("Error creating user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to create user"})
		return
	}

	// Welcome email is best-effort and must not block the response.
	go func() {
		if err := sendWelcomeEmail(email); err != nil {
			log.Printf("Error sending welcome email: %v", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"acknowledged": true,
		"insertedId":   insertedID.Hex(),
	})
}

// --- GET /users ---

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.All(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// --- GET /user/{email} ---

func (h *UserHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := h.users.FindDocByEmail(r.Context(), email)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}
	// user is null when nothing matches — the client treats both alike.
	writeJSON(w, http.StatusOK, user)
}

// --- PATCH /update-user/coins/{email} ---

func (h *UserHandler) AdjustCoins(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	amount, err := strconv.Atoi(r.URL.Query().Get("amount"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "amount must be an integer"})
		return
	}

	updated, err := h.users.AdjustCoins(r.Context(), email, amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		case errors.Is(err, repository.ErrInsufficientFunds):
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "you don't have enough coins"})
		default:
			log.Printf("Error adjusting coins: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "coins updated successfully",
		"updatedUser": updated,
	})
}

// --- Helpers ---

func sendWelcomeEmail(to string) error {
	apiKey := os.Getenv("RESEND_API_KEY")
	fromEmail := os.Getenv("FROM_EMAIL")

	if apiKey == "" {
		log.Printf("📧 [Dev Mode] Skipping welcome email for %s (RESEND_API_KEY not set)", to)
		return nil
	}

	client := resend.NewClient(apiKey)

	params := &resend.SendEmailRequest{
		From:    fromEmail,
		To:      []string{to},
		Subject: "Welcome to KitchenTales!",
		Html: `
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Welcome to KitchenTales! 🍳</h2>
				<p>Your account is ready. Share a recipe to earn your first coin.</p>
			</div>
		`,
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("📧 Welcome email sent to %s (ID: %s)", to, sent.Id)
	return nil
}
