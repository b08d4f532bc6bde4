package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kitchentales-backend/internal/notify"
	"kitchentales-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// fakeRecipeStore keeps insertion order so paging is deterministic.
type fakeRecipeStore struct {
	docs  map[bson.ObjectID]bson.M
	order []bson.ObjectID
}

func newFakeRecipeStore() *fakeRecipeStore {
	return &fakeRecipeStore{docs: map[bson.ObjectID]bson.M{}}
}

func (f *fakeRecipeStore) Create(ctx context.Context, doc bson.M) (bson.ObjectID, error) {
	if _, ok := doc["purchased_by"]; !ok {
		doc["purchased_by"] = bson.A{}
	}
	if _, ok := doc["watchCount"]; !ok {
		doc["watchCount"] = 0
	}
	id := bson.NewObjectID()
	f.docs[id] = doc
	f.order = append(f.order, id)
	return id, nil
}

func (f *fakeRecipeStore) Search(ctx context.Context, q repository.RecipeQuery) ([]bson.M, int64, error) {
	matches := []bson.M{}
	for _, id := range f.order {
		doc := f.docs[id]
		if q.Category != "" && doc["category"] != q.Category {
			continue
		}
		if q.Country != "" && doc["country"] != q.Country {
			continue
		}
		if q.Search != "" {
			name, _ := doc["recipe_name"].(string)
			if !strings.Contains(strings.ToLower(name), strings.ToLower(q.Search)) {
				continue
			}
		}
		matches = append(matches, doc)
	}

	total := int64(len(matches))
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (f *fakeRecipeStore) RecordPurchase(ctx context.Context, id bson.ObjectID, userEmail string) (*mongo.UpdateResult, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrRecipeNotFound
	}
	doc["purchased_by"] = append(doc["purchased_by"].(bson.A), userEmail)
	doc["watchCount"] = doc["watchCount"].(int) + 1
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func newRecipeRouter(recipes *fakeRecipeStore, users *fakeUserStore) http.Handler {
	h := NewRecipeHandler(recipes, users, notify.NewLogNotifier())
	r := chi.NewRouter()
	r.Post("/add-recipe", h.CreateRecipe)
	r.Get("/all-recipe", h.ListRecipes)
	r.Patch("/update-recipe/{id}", h.RecordPurchase)
	return r
}

func TestCreateRecipe_CreditsCreator(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.docs["chef@kitchentales.app"] = bson.M{"email": "chef@kitchentales.app", "coin": 0}
	recipes := newFakeRecipeStore()
	router := newRecipeRouter(recipes, users)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/add-recipe",
		strings.NewReader(`{"recipe_name":"Kacchi Biryani","creatorEmail":"chef@kitchentales.app","category":"Main","country":"Bangladesh"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	recipeResult := body["recipeResult"].(map[string]any)
	assert.Equal(t, true, recipeResult["acknowledged"])
	assert.NotEmpty(t, recipeResult["insertedId"])

	userResult := body["userUpdateResult"].(map[string]any)
	assert.EqualValues(t, 1, userResult["modifiedCount"])
	assert.Equal(t, 1, users.coin(t, "chef@kitchentales.app"))

	// purchased_by defaults to an empty array so later appends cannot fail.
	require.Len(t, recipes.order, 1)
	assert.Equal(t, bson.A{}, recipes.docs[recipes.order[0]]["purchased_by"])
}

func TestCreateRecipe_MissingCreatorEmail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRecipeRouter(newFakeRecipeStore(), newFakeUserStore()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/add-recipe", strings.NewReader(`{"recipe_name":"anonymous"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func seedRecipes(t *testing.T, store *fakeRecipeStore) {
	t.Helper()
	for i := 0; i < 5; i++ {
		_, err := store.Create(context.Background(), bson.M{
			"recipe_name":  fmt.Sprintf("Dessert %d", i),
			"category":     "Dessert",
			"country":      "France",
			"creatorEmail": "chef@kitchentales.app",
		})
		require.NoError(t, err)
	}
	_, err := store.Create(context.Background(), bson.M{
		"recipe_name":  "Shorshe Ilish",
		"category":     "Main",
		"country":      "Bangladesh",
		"creatorEmail": "chef@kitchentales.app",
	})
	require.NoError(t, err)
}

func TestListRecipes_CategoryFilterWithPagination(t *testing.T) {
	t.Parallel()

	recipes := newFakeRecipeStore()
	seedRecipes(t, recipes)
	router := newRecipeRouter(recipes, newFakeUserStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/all-recipe?category=Dessert&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Len(t, body["recipes"], 2)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 5, pagination["totalItems"])
	assert.EqualValues(t, 3, pagination["totalPages"])
	assert.EqualValues(t, 2, pagination["itemsPerPage"])
	assert.EqualValues(t, 1, pagination["currentPage"])
}

func TestListRecipes_SecondPage(t *testing.T) {
	t.Parallel()

	recipes := newFakeRecipeStore()
	seedRecipes(t, recipes)
	router := newRecipeRouter(recipes, newFakeUserStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/all-recipe?category=Dessert&limit=2&page=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	page := body["recipes"].([]any)
	require.Len(t, page, 1)
	assert.Equal(t, "Dessert 4", page[0].(map[string]any)["recipe_name"])
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pagination["currentPage"])
}

func TestListRecipes_SearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	recipes := newFakeRecipeStore()
	seedRecipes(t, recipes)
	router := newRecipeRouter(recipes, newFakeUserStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/all-recipe?search=shorshe", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["recipes"], 1)
}

func TestListRecipes_InvalidLimit(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRecipeRouter(newFakeRecipeStore(), newFakeUserStore()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/all-recipe?limit=lots", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordPurchase_AppendsAndCredits(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.docs["chef@kitchentales.app"] = bson.M{"email": "chef@kitchentales.app", "coin": 0}
	recipes := newFakeRecipeStore()
	id, err := recipes.Create(context.Background(), bson.M{
		"recipe_name":  "Kacchi Biryani",
		"creatorEmail": "chef@kitchentales.app",
	})
	require.NoError(t, err)
	router := newRecipeRouter(recipes, users)

	// Repeat purchases are not deduplicated: same email appended twice,
	// watchCount bumped twice, creator credited twice.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/update-recipe/"+id.Hex(),
			strings.NewReader(`{"creatorEmail":"chef@kitchentales.app","userEmail":"foodie@x.y"}`)))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		recipeResult := body["recipeUpdateResult"].(map[string]any)
		assert.EqualValues(t, 1, recipeResult["matchedCount"])
		creatorResult := body["creatorUpdateResult"].(map[string]any)
		assert.EqualValues(t, 1, creatorResult["modifiedCount"])
	}

	doc := recipes.docs[id]
	assert.Equal(t, bson.A{"foodie@x.y", "foodie@x.y"}, doc["purchased_by"])
	assert.Equal(t, 2, doc["watchCount"])
	assert.Equal(t, 2, users.coin(t, "chef@kitchentales.app"))
}

func TestRecordPurchase_UnknownRecipe(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.docs["chef@kitchentales.app"] = bson.M{"email": "chef@kitchentales.app", "coin": 0}
	router := newRecipeRouter(newFakeRecipeStore(), users)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/update-recipe/"+bson.NewObjectID().Hex(),
		strings.NewReader(`{"creatorEmail":"chef@kitchentales.app","userEmail":"foodie@x.y"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, users.coin(t, "chef@kitchentales.app"), "no reward on a failed purchase")
}

func TestRecordPurchase_InvalidID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRecipeRouter(newFakeRecipeStore(), newFakeUserStore()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPatch, "/update-recipe/not-a-hex-id",
			strings.NewReader(`{"creatorEmail":"a@b.c","userEmail":"d@e.f"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
