package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"kitchentales-backend/internal/notify"
	"kitchentales-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const defaultPageSize = 10

// RecipeStore is the slice of the recipe repository the handlers need.
type RecipeStore interface {
	Create(ctx context.Context, doc bson.M) (bson.ObjectID, error)
	Search(ctx context.Context, q repository.RecipeQuery) ([]bson.M, int64, error)
	RecordPurchase(ctx context.Context, id bson.ObjectID, userEmail string) (*mongo.UpdateResult, error)
}

type RecipeHandler struct {
	recipes  RecipeStore
	users    UserStore
	notifier notify.Notifier
}

func NewRecipeHandler(recipes RecipeStore, users UserStore, notifier notify.Notifier) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		users:    users,
		notifier: notifier,
	}
}

// --- POST /add-recipe ---
// Inserts the recipe, then credits the creator one coin. The two writes are
// sequential, not transactional: the inserted recipe is the source of truth
// if the reward write fails.

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var recipe bson.M
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	creatorEmail, _ := recipe["creatorEmail"].(string)
	if creatorEmail == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "creatorEmail is required"})
		return
	}

	insertedID, err := h.recipes.Create(r.Context(), recipe)
	if err != nil {
		log.Printf("Error creating recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to create recipe"})
		return
	}

	rewardResult, err := h.users.CreditCoins(r.Context(), creatorEmail, 1)
	if err != nil {
		log.Printf("Error crediting creator %s: %v", creatorEmail, err)
	}

	go func() {
		message := fmt.Sprintf("1 coin credited to %s for publishing recipe %s", creatorEmail, insertedID.Hex())
		if err := h.notifier.Publish(context.Background(), message); err != nil {
			log.Printf("Error publishing reward event: %v", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipeResult": map[string]interface{}{
			"acknowledged": true,
			"insertedId":   insertedID.Hex(),
		},
		"userUpdateResult": updateResultJSON(rewardResult),
	})
}

// --- GET /all-recipe ---

func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	query := repository.RecipeQuery{
		Category: r.URL.Query().Get("category"),
		Country:  r.URL.Query().Get("country"),
		Search:   r.URL.Query().Get("search"),
		Limit:    defaultPageSize,
		Page:     1,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "limit must be a positive integer"})
			return
		}
		query.Limit = limit
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || page < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "page must be a positive integer"})
			return
		}
		query.Page = page
	}

	recipes, total, err := h.recipes.Search(r.Context(), query)
	if err != nil {
		log.Printf("Error searching recipes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipes": recipes,
		"pagination": map[string]interface{}{
			"totalItems":   total,
			"totalPages":   (total + query.Limit - 1) / query.Limit,
			"itemsPerPage": query.Limit,
			"currentPage":  query.Page,
		},
	})
}

// --- PATCH /update-recipe/{id} ---

type recordPurchaseRequest struct {
	CreatorEmail string `json:"creatorEmail"`
	UserEmail    string `json:"userEmail"`
}

// RecordPurchase appends the purchaser to the recipe and credits the creator.
// The recipe update runs first and doubles as the existence check, so an
// unknown id fails with 404 before any coin moves.
func (h *RecipeHandler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid recipe id"})
		return
	}

	var req recordPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	if req.CreatorEmail == "" || req.UserEmail == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "creatorEmail and userEmail are required"})
		return
	}

	recipeResult, err := h.recipes.RecordPurchase(r.Context(), id, req.UserEmail)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "recipe not found"})
			return
		}
		log.Printf("Error recording purchase: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}

	creatorResult, err := h.users.CreditCoins(r.Context(), req.CreatorEmail, 1)
	if err != nil {
		log.Printf("Error crediting creator %s: %v", req.CreatorEmail, err)
	}

	go func() {
		message := fmt.Sprintf("1 coin credited to %s: recipe %s unlocked by %s", req.CreatorEmail, id.Hex(), req.UserEmail)
		if err := h.notifier.Publish(context.Background(), message); err != nil {
			log.Printf("Error publishing reward event: %v", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipeUpdateResult":  updateResultJSON(recipeResult),
		"creatorUpdateResult": updateResultJSON(creatorResult),
	})
}

// --- Helpers ---

func updateResultJSON(res *mongo.UpdateResult) map[string]interface{} {
	if res == nil {
		return nil
	}
	return map[string]interface{}{
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
	}
}
