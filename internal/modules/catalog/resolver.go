package catalog

import (
	"github.com/google/uuid"
)

// Index is a product lookup table keyed by id.
type Index map[uuid.UUID]*Product

// BuildIndex builds an Index from a product slice.
func BuildIndex(products []*Product) Index {
	idx := make(Index, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// EffectiveStock computes the quantity of p that is purchasable right now.
// Simple products report their stored stock. Composite products report the
// min over ingredients of floor(available/required), resolving composite
// ingredients bottom-up. A missing or inactive ingredient makes the product
// unpurchasable (0), never an error.
//
// The recipe graph is validated acyclic at save time; EffectiveStock assumes
// that invariant holds.
func EffectiveStock(p *Product, idx Index) int {
	if !p.IsComposite() {
		if p.Stock < 0 {
			return 0
		}
		return p.Stock
	}
	units := -1
	for ingID, required := range p.Recipe {
		if required <= 0 {
			continue
		}
		ing, ok := idx[ingID]
		if !ok || !ing.IsActive {
			return 0
		}
		n := EffectiveStock(ing, idx) / required
		if units < 0 || n < units {
			units = n
		}
	}
	if units < 0 {
		return 0
	}
	return units
}

// FlattenRecipe expands one unit of p into demand on simple (leaf) products,
// recursing through composite ingredients. For a simple product the result is
// {p.ID: 1}. A missing or inactive ingredient yields a zero-demand map and
// ok=false, mirroring EffectiveStock's "unpurchasable" result.
func FlattenRecipe(p *Product, idx Index) (map[uuid.UUID]int, bool) {
	out := map[uuid.UUID]int{}
	if !flattenInto(p, 1, idx, out) {
		return nil, false
	}
	return out, true
}

func flattenInto(p *Product, mult int, idx Index, out map[uuid.UUID]int) bool {
	if !p.IsComposite() {
		out[p.ID] += mult
		return true
	}
	for ingID, required := range p.Recipe {
		if required <= 0 {
			continue
		}
		ing, ok := idx[ingID]
		if !ok || !ing.IsActive {
			return false
		}
		if !flattenInto(ing, mult*required, idx, out) {
			return false
		}
	}
	return true
}

// ValidateRecipe checks a pending product save against the stored catalog:
// every ingredient must exist, a product may not require itself, and the
// resulting graph must stay acyclic. Returns nil when the save is legal.
func ValidateRecipe(productID uuid.UUID, recipe Recipe, idx Index) error {
	if len(recipe) == 0 {
		return nil
	}
	for ingID := range recipe {
		if ingID == productID {
			return &RecipeCycleError{ProductID: productID}
		}
		if _, ok := idx[ingID]; !ok {
			return &UnknownIngredientError{IngredientID: ingID}
		}
	}

	// DFS from the pending product through the graph with the pending
	// recipe substituted in.
	recipeOf := func(id uuid.UUID) Recipe {
		if id == productID {
			return recipe
		}
		if p, ok := idx[id]; ok {
			return p.Recipe
		}
		return nil
	}

	const (
		white = 0 // unvisited
		grey  = 1 // on the current path
		black = 2 // fully explored
	)
	color := map[uuid.UUID]int{}

	var visit func(id uuid.UUID) bool
	visit = func(id uuid.UUID) bool {
		color[id] = grey
		for ingID := range recipeOf(id) {
			switch color[ingID] {
			case grey:
				return false
			case white:
				if !visit(ingID) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}

	if !visit(productID) {
		return &RecipeCycleError{ProductID: productID}
	}
	return nil
}
