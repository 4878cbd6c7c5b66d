package seed

import (
	"context"
	"io"
	"testing"

	"cloud-kitchen/memstore"
	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMenu = `
categories:
  - name: Rice
    display_order: 1
    items:
      - name: Kacchi Biryani
        description: Mutton and aromatic rice
        price: "120.50"
        type: cooked
      - name: Plain Polao
        price: "60"
        available: false
  - name: Meal Kits
    display_order: 2
    items:
      - name: Paratha Pack
        price: "75.00"
        type: ready_to_cook
`

func TestApplySeedsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)
	store := memstore.New()
	catalog := services.NewCatalogService(store, store, entry)

	menu, err := Parse([]byte(sampleMenu))
	require.NoError(t, err)
	require.Len(t, menu.Categories, 2)

	seeded, err := Apply(ctx, catalog, menu, entry)
	require.NoError(t, err)
	assert.True(t, seeded)

	items, err := catalog.Menu(ctx, services.CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	byName := map[string]models.FoodItem{}
	for _, it := range items {
		byName[it.Name] = it
	}
	assert.Equal(t, "120.50", byName["Kacchi Biryani"].Price.String())
	assert.Equal(t, "Rice", byName["Kacchi Biryani"].CategoryName)
	assert.False(t, byName["Plain Polao"].Available)
	assert.Equal(t, models.FoodTypeCooked, byName["Plain Polao"].Type)
	assert.Equal(t, models.FoodTypeReadyToCook, byName["Paratha Pack"].Type)

	seeded, err = Apply(ctx, catalog, menu, entry)
	require.NoError(t, err)
	assert.False(t, seeded, "second run is a no-op")
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("categories: [oops"))
	assert.Error(t, err)
}

func TestApplyRejectsBadPrice(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)
	store := memstore.New()
	catalog := services.NewCatalogService(store, store, entry)

	menu := &Menu{Categories: []Category{{Name: "X", Items: []Item{{Name: "Y", Price: "ten"}}}}}
	_, err := Apply(context.Background(), catalog, menu, entry)
	assert.Error(t, err)
}

func TestExampleMenuLoads(t *testing.T) {
	menu, err := LoadFile("menu.example.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, menu.Categories)
	for _, c := range menu.Categories {
		for _, it := range c.Items {
			_, err := models.NewMoney(it.Price)
			assert.NoError(t, err, it.Name)
		}
	}
}
