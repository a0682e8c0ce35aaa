// Package recipe provides the built-in starter menu used on first boot,
// before any menu has been synced to the appliance.
package recipe

import (
	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Pump order: gin, vermouth, tonic, citrus.
var starterIngredients = domain.Stock{
	{Name: "Gin", Color: "#38bdf8", Remaining: 700},
	{Name: "Vermouth", Color: "#f59e0b", Remaining: 700},
	{Name: "Tonic", Color: "#a3e635", Remaining: 1500},
	{Name: "Citrus", Color: "#facc15", Remaining: 500},
}

var starterRecipes = []domain.Recipe{
	{Name: "Martini", Amounts: domain.Amounts{60, 10, 0, 0}},
	{Name: "Gin Tonic", Amounts: domain.Amounts{50, 0, 150, 0}},
	{Name: "Gin Sour", Amounts: domain.Amounts{50, 0, 0, 30}},
	{Name: "Wet Martini", Amounts: domain.Amounts{50, 25, 0, 0}},
	{Name: "Tom Collins", Amounts: domain.Amounts{45, 0, 90, 30}},
	{Name: "Vermouth Spritz", Amounts: domain.Amounts{0, 60, 120, 0}},
	{Name: "Bronx Lite", Amounts: domain.Amounts{40, 20, 0, 25}},
	{Name: "Citrus Cooler", Amounts: domain.Amounts{0, 0, 150, 40}},
	{Name: "Perfect Tonic", Amounts: domain.Amounts{30, 15, 120, 10}},
}

// DefaultCatalog returns the starter menu.
func DefaultCatalog(log *logger.Logger) domain.Catalog {
	c, err := domain.NewCatalog(starterRecipes...)
	if err != nil {
		// Only reachable if the table above grows past capacity.
		panic("recipe: starter menu exceeds catalog capacity")
	}
	log.Debug("seeded %d starter recipes", c.Len())
	return c
}

// DefaultStock returns the starter ingredient levels.
func DefaultStock() domain.Stock {
	return starterIngredients
}
