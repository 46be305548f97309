package settlement

import (
	"github.com/google/uuid"

	"github.com/oshimalab/foodstore-backend/internal/modules/catalog"
)

// PlannedLine is a cart line after price resolution.
type PlannedLine struct {
	Product   *catalog.Product
	Quantity  int
	UnitPrice int64
	LineTotal int64
	// PostSaleStock is the line product's purchasable quantity after the
	// whole plan is applied, used for restock alerts.
	PostSaleStock int
}

// Plan is the fully resolved outcome of a cart against a stock snapshot:
// what to charge, and exactly which simple products lose how many units.
// Building a plan has no side effects; applying it is the storage layer's
// job inside its transaction.
type Plan struct {
	Total      int64
	Lines      []PlannedLine
	Deductions map[uuid.UUID]int // simple product id → units to subtract
}

// BuildPlan resolves a cart against the product snapshot in idx. Lines are
// checked sequentially against a shared running stock pool, so two lines
// competing for the same ingredient fail on the line that tips over — the
// cart is all-or-nothing either way. Composite lines are expanded to leaf
// ingredient demand; a composite's own stock column is never touched.
func BuildPlan(lines []Line, idx catalog.Index) (*Plan, error) {
	plan := &Plan{Deductions: map[uuid.UUID]int{}}

	// running pool of simple-product stock
	remaining := map[uuid.UUID]int{}
	for id, p := range idx {
		if !p.IsComposite() {
			remaining[id] = p.Stock
		}
	}
	overlay := func() catalog.Index {
		out := make(catalog.Index, len(idx))
		for id, p := range idx {
			cp := *p
			if n, ok := remaining[id]; ok {
				cp.Stock = n
			}
			out[id] = &cp
		}
		return out
	}

	for _, line := range lines {
		p, ok := idx[line.ProductID]
		if !ok || !p.IsActive {
			return nil, &InsufficientStockError{
				ProductID: line.ProductID, ProductName: productName(idx, line.ProductID),
				Requested: line.Quantity, Available: 0,
			}
		}

		demand, resolvable := catalog.FlattenRecipe(p, idx)
		if !resolvable {
			return nil, &InsufficientStockError{
				ProductID: p.ID, ProductName: p.Name,
				Requested: line.Quantity, Available: 0,
			}
		}

		for leaf, perUnit := range demand {
			if remaining[leaf] < perUnit*line.Quantity {
				return nil, &InsufficientStockError{
					ProductID: p.ID, ProductName: p.Name,
					Requested: line.Quantity,
					Available: catalog.EffectiveStock(p, overlay()),
				}
			}
		}
		for leaf, perUnit := range demand {
			need := perUnit * line.Quantity
			remaining[leaf] -= need
			plan.Deductions[leaf] += need
		}

		lineTotal := p.Price * int64(line.Quantity)
		plan.Total += lineTotal
		plan.Lines = append(plan.Lines, PlannedLine{
			Product:   p,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
			LineTotal: lineTotal,
		})
	}

	// post-sale purchasable quantities for restock alerts
	after := overlay()
	for i := range plan.Lines {
		plan.Lines[i].PostSaleStock = catalog.EffectiveStock(plan.Lines[i].Product, after)
	}
	return plan, nil
}

func productName(idx catalog.Index, id uuid.UUID) string {
	if p, ok := idx[id]; ok {
		return p.Name
	}
	return id.String()
}
