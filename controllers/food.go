package controllers

import (
	"net/http"

	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// FoodController serves the menu and the admin food and category panels.
type FoodController struct {
	Catalog *services.CatalogService
	Log     *logrus.Entry
}

// NewFoodController creates a new FoodController
func NewFoodController(catalog *services.CatalogService, log *logrus.Entry) *FoodController {
	return &FoodController{Catalog: catalog, Log: log}
}

// GetMenu lists food items filtered by ?category=, ?q= and ?type=.
func (fc *FoodController) GetMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.CatalogFilter{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Type:     models.FoodType(q.Get("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		http.Error(w, "type must be cooked or ready_to_cook", http.StatusBadRequest)
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	items, err := fc.Catalog.Menu(ctx, filter)
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// GetFoodByID retrieves a single food item by ID
func (fc *FoodController) GetFoodByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	item, err := fc.Catalog.Food(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// CreateFood handles adding a new food item (Admin only)
func (fc *FoodController) CreateFood(w http.ResponseWriter, r *http.Request) {
	var in services.FoodInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	item, err := fc.Catalog.CreateFood(ctx, in)
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateFood handles updating a food item (Admin only)
func (fc *FoodController) UpdateFood(w http.ResponseWriter, r *http.Request) {
	var in services.FoodInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	item, err := fc.Catalog.UpdateFood(ctx, mux.Vars(r)["id"], in)
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteFood handles deleting a food item (Admin only)
func (fc *FoodController) DeleteFood(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := fc.Catalog.DeleteFood(ctx, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (fc *FoodController) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	cats, err := fc.Catalog.Categories(ctx)
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func (fc *FoodController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in services.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	c, err := fc.Catalog.CreateCategory(ctx, in)
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (fc *FoodController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in services.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	c, err := fc.Catalog.UpdateCategory(ctx, mux.Vars(r)["id"], in)
	if err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteCategory also detaches the category's food items.
func (fc *FoodController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := fc.Catalog.DeleteCategory(ctx, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, fc.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
