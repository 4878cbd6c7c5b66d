package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud-kitchen/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AllCategories is the category filter value that matches every item.
const AllCategories = "all"

// CatalogFilter narrows the menu. Zero fields match everything.
type CatalogFilter struct {
	Category string
	Search   string
	Type     models.FoodType
}

// FilterFoods keeps items matching the type, the category ("all" or empty for any)
// and the search text, compared case-insensitively against name or description.
func FilterFoods(items []models.FoodItem, f CatalogFilter) []models.FoodItem {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.FoodItem, 0, len(items))
	for _, item := range items {
		if f.Type != "" && item.Type != f.Type {
			continue
		}
		if f.Category != "" && f.Category != AllCategories {
			if item.CategoryID == nil || item.CategoryID.Hex() != f.Category {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FoodInput is the admin form for a food item.
type FoodInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Price       *models.Money   `json:"price"`
	ImageURL    string          `json:"image_url"`
	Type        models.FoodType `json:"food_type"`
	Available   *bool           `json:"available"`
}

// CategoryInput is the admin form for a category.
type CategoryInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

// CatalogService serves the menu and the admin catalog panels.
type CatalogService struct {
	foods      FoodStore
	categories CategoryStore
	log        *logrus.Entry
}

func NewCatalogService(foods FoodStore, categories CategoryStore, log *logrus.Entry) *CatalogService {
	return &CatalogService{foods: foods, categories: categories, log: log}
}

// Menu lists food items with their category names, filtered.
func (s *CatalogService) Menu(ctx context.Context, f CatalogFilter) ([]models.FoodItem, error) {
	items, err := s.foods.ListFoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	for i := range items {
		if items[i].CategoryID != nil {
			items[i].CategoryName = names[*items[i].CategoryID]
		}
	}
	filtered := FilterFoods(items, f)
	s.log.WithFields(logrus.Fields{"total": len(items), "matched": len(filtered)}).Debug("Served menu")
	return filtered, nil
}

func (s *CatalogService) Food(ctx context.Context, id string) (*models.FoodItem, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.foods.GetFood(ctx, oid)
	if err != nil {
		return nil, err
	}
	if item.CategoryID != nil {
		if c, err := s.categories.GetCategory(ctx, *item.CategoryID); err == nil {
			item.CategoryName = c.Name
		}
	}
	return item, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListCategories(ctx)
}

func (s *CatalogService) CreateFood(ctx context.Context, in FoodInput) (*models.FoodItem, error) {
	item := &models.FoodItem{Available: true}
	if err := s.applyFoodInput(ctx, item, in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if err := s.foods.CreateFood(ctx, item); err != nil {
		return nil, fmt.Errorf("create food: %w", err)
	}
	s.log.WithFields(logrus.Fields{"food_id": item.ID.Hex(), "name": item.Name}).Info("Food item added")
	return item, nil
}

// UpdateFood overwrites the item with the form values. Last write wins.
func (s *CatalogService) UpdateFood(ctx context.Context, id string, in FoodInput) (*models.FoodItem, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.foods.GetFood(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := s.applyFoodInput(ctx, item, in); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.foods.UpdateFood(ctx, item); err != nil {
		return nil, fmt.Errorf("update food: %w", err)
	}
	s.log.WithField("food_id", id).Info("Food item updated")
	return item, nil
}

func (s *CatalogService) DeleteFood(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.foods.DeleteFood(ctx, oid); err != nil {
		return err
	}
	s.log.WithField("food_id", id).Info("Food item deleted")
	return nil
}

func (s *CatalogService) applyFoodInput(ctx context.Context, item *models.FoodItem, in FoodInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Price == nil {
		return fmt.Errorf("%w: price is required", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if !in.Price.WholeCents() {
		return fmt.Errorf("%w: price cannot have more than two decimal places", ErrValidation)
	}
	foodType := in.Type
	if foodType == "" {
		foodType = models.FoodTypeCooked
	}
	if !foodType.Valid() {
		return fmt.Errorf("%w: food_type must be cooked or ready_to_cook", ErrValidation)
	}

	var categoryID *primitive.ObjectID
	if in.CategoryID != "" {
		oid, err := parseID(in.CategoryID)
		if err != nil {
			return fmt.Errorf("%w: invalid category_id", ErrValidation)
		}
		if _, err := s.categories.GetCategory(ctx, oid); err != nil {
			return fmt.Errorf("%w: category %s does not exist", ErrValidation, in.CategoryID)
		}
		categoryID = &oid
	}

	item.Name = name
	item.Description = strings.TrimSpace(in.Description)
	item.Price = *in.Price
	item.ImageURL = strings.TrimSpace(in.ImageURL)
	item.Type = foodType
	item.CategoryID = categoryID
	if in.Available != nil {
		item.Available = *in.Available
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := &models.Category{}
	if err := applyCategoryInput(c, in); err != nil {
		return nil, err
	}
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.log.WithFields(logrus.Fields{"category_id": c.ID.Hex(), "name": c.Name}).Info("Category added")
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.categories.GetCategory(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(c, in); err != nil {
		return nil, err
	}
	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.log.WithField("category_id", id).Info("Category updated")
	return c, nil
}

// DeleteCategory removes the category and detaches its food items.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.categories.DeleteCategory(ctx, oid); err != nil {
		return err
	}
	if err := s.foods.ClearFoodCategory(ctx, oid); err != nil {
		return fmt.Errorf("detach food items: %w", err)
	}
	s.log.WithField("category_id", id).Info("Category deleted")
	return nil
}

func applyCategoryInput(c *models.Category, in CategoryInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	c.Name = name
	c.Description = strings.TrimSpace(in.Description)
	c.DisplayOrder = in.DisplayOrder
	return nil
}
