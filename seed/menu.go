// Package seed loads a starter menu from YAML into an empty catalog.
package seed

import (
	"context"
	"fmt"
	"os"

	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Menu is the seed file layout: categories with their items nested.
type Menu struct {
	Categories []Category `yaml:"categories"`
}

type Category struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	DisplayOrder int    `yaml:"display_order"`
	Items        []Item `yaml:"items"`
}

// Item prices are strings so they parse as exact decimals.
type Item struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       string          `yaml:"price"`
	ImageURL    string          `yaml:"image_url"`
	Type        models.FoodType `yaml:"type"`
	Available   *bool           `yaml:"available"`
}

// LoadFile reads and parses a YAML menu file.
func LoadFile(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML data into a Menu.
func Parse(data []byte) (*Menu, error) {
	var m Menu
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse menu YAML: %w", err)
	}
	return &m, nil
}

// Apply creates the menu through the catalog unless categories already exist.
// It reports whether anything was written.
func Apply(ctx context.Context, catalog *services.CatalogService, m *Menu, log *logrus.Entry) (bool, error) {
	existing, err := catalog.Categories(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		log.WithField("categories", len(existing)).Info("Catalog not empty, skipping menu seed")
		return false, nil
	}

	items := 0
	for _, c := range m.Categories {
		cat, err := catalog.CreateCategory(ctx, services.CategoryInput{
			Name:         c.Name,
			Description:  c.Description,
			DisplayOrder: c.DisplayOrder,
		})
		if err != nil {
			return true, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		for _, it := range c.Items {
			price, err := models.NewMoney(it.Price)
			if err != nil {
				return true, fmt.Errorf("seed item %q: %w", it.Name, err)
			}
			if _, err := catalog.CreateFood(ctx, services.FoodInput{
				Name:        it.Name,
				Description: it.Description,
				CategoryID:  cat.ID.Hex(),
				Price:       &price,
				ImageURL:    it.ImageURL,
				Type:        it.Type,
				Available:   it.Available,
			}); err != nil {
				return true, fmt.Errorf("seed item %q: %w", it.Name, err)
			}
			items++
		}
	}
	log.WithFields(logrus.Fields{"categories": len(m.Categories), "items": items}).Info("Menu seeded")
	return true, nil
}
