package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recipe maps ingredient product ids to the quantity required per unit sold.
// A product with a non-empty recipe is a composite: its own stock column is
// never authoritative, purchasable quantity derives from the ingredients.
type Recipe map[uuid.UUID]int

// Product is a sellable or ingredient item in the store catalog.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     int64     `json:"price"`
	Cost      *int64    `json:"cost,omitempty"`
	Stock     int       `json:"stock"`
	Recipe    Recipe    `json:"recipe,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsComposite reports whether purchasable quantity derives from ingredients.
func (p *Product) IsComposite() bool { return len(p.Recipe) > 0 }

// ResolvedProduct is a product together with its purchasable quantity as of
// the catalog read. The value is advisory for display; the settlement engine
// re-resolves inside its own transaction.
type ResolvedProduct struct {
	*Product
	Purchasable int `json:"purchasable"`
}

// ErrProductNotFound is returned when a product lookup fails.
var ErrProductNotFound = errors.New("product not found")

// RecipeCycleError is returned when saving a product whose recipe would make
// the ingredient graph cyclic. Caught at write time so the resolver can
// assume acyclicity.
type RecipeCycleError struct {
	ProductID uuid.UUID
}

func (e *RecipeCycleError) Error() string {
	return fmt.Sprintf("recipe for product %s introduces a cycle", e.ProductID)
}

// UnknownIngredientError is returned when a recipe references a product id
// that does not exist.
type UnknownIngredientError struct {
	IngredientID uuid.UUID
}

func (e *UnknownIngredientError) Error() string {
	return fmt.Sprintf("recipe references unknown ingredient %s", e.IngredientID)
}

// SaveProductRequest is the payload for creating or updating a product.
type SaveProductRequest struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Price    int64          `json:"price"`
	Cost     *int64         `json:"cost,omitempty"`
	Stock    int            `json:"stock"`
	Recipe   map[string]int `json:"recipe,omitempty"`
	IsActive *bool          `json:"is_active,omitempty"`
}

// ParseRecipe converts the string-keyed request form into a typed Recipe.
// Zero and negative quantities are rejected.
func ParseRecipe(raw map[string]int) (Recipe, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	recipe := make(Recipe, len(raw))
	for k, qty := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient id %q: %w", k, err)
		}
		if qty <= 0 {
			return nil, fmt.Errorf("ingredient %s: quantity must be > 0", k)
		}
		recipe[id] = qty
	}
	return recipe, nil
}
