// Package domain defines the core types and interfaces for the dispenser.
// All other packages depend on domain; domain depends on nothing.
package domain

// Fixed layout of the appliance. The persisted records assume these sizes.
const (
	IngredientCount = 4
	CatalogCapacity = 9
	TopN            = 3
)

// Reserved recipe identities.
const (
	UnselectedName = "UNSELECTED"
	CustomName     = "Custom Cocktail"
	RandomName     = "Random Cocktail"
)

// Amounts holds the per-ingredient target volumes in ml. Zero means unused.
type Amounts [IngredientCount]int

// Recipe is a named target composition.
type Recipe struct {
	Name    string
	Amounts Amounts
}

// Unselected returns the sentinel "nothing selected" recipe.
func Unselected() Recipe {
	return Recipe{Name: UnselectedName}
}

// IsEmpty reports whether every target volume is zero.
func (r Recipe) IsEmpty() bool {
	for _, a := range r.Amounts {
		if a != 0 {
			return false
		}
	}
	return true
}

// Total returns the sum of all target volumes.
func (r Recipe) Total() int {
	sum := 0
	for _, a := range r.Amounts {
		sum += a
	}
	return sum
}

// Ingredient is one stocked liquid.
type Ingredient struct {
	Name      string
	Color     string // hex colour used by the renderer, e.g. "#f59e0b"
	Remaining float64
}

// Stock is the full set of ingredient slots, indexed by pump.
type Stock [IngredientCount]Ingredient

// Catalog is the bounded, ordered collection of preset recipes.
// The zero value is an empty catalog.
type Catalog struct {
	slots []Recipe
}

// NewCatalog builds a catalog. More than CatalogCapacity recipes is an error.
func NewCatalog(recipes ...Recipe) (Catalog, error) {
	if len(recipes) > CatalogCapacity {
		return Catalog{}, ErrCatalogFull
	}
	slots := make([]Recipe, len(recipes))
	copy(slots, recipes)
	return Catalog{slots: slots}, nil
}

// Len returns the number of occupied slots.
func (c Catalog) Len() int { return len(c.slots) }

// At returns the recipe in slot i, or the zero Recipe for an empty or
// out-of-range slot.
func (c Catalog) At(i int) Recipe {
	if i < 0 || i >= len(c.slots) {
		return Recipe{}
	}
	return c.slots[i]
}

// Recipes returns a copy of the occupied slots.
func (c Catalog) Recipes() []Recipe {
	out := make([]Recipe, len(c.slots))
	copy(out, c.slots)
	return out
}

// IndexOf returns the first slot whose name matches, or -1.
func (c Catalog) IndexOf(name string) int {
	for i, r := range c.slots {
		if r.Name == name {
			return i
		}
	}
	return -1
}
