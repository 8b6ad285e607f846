package oracle

import (
	"context"
	"fmt"

	"github.com/fjod/go_bookstore/inventory-service/internal/store"
)

// SeedStock is the ledger a fresh deployment starts with: the catalog titles,
// their legacy codes, and one title deliberately out of stock.
var SeedStock = map[string]int32{
	"Design Patterns: Elements of Reusable Object-Oriented Software": 100,
	"The Pragmatic Programmer: Your Journey to Mastery":               100,
	"Clean Code: A Handbook of Agile Software Craftsmanship":          100,
	"Refactoring: Improving the Design of Existing Code":              100,
	"Code Complete: A Practical Handbook of Software Construction":    100,

	"design_patterns_gof":  100,
	"pragmatic_programmer": 100,
	"clean_code":           100,
	"refactoring":          100,
	"code_complete":        100,

	"mythical_man_month":     0,
	"The Mythical Man-Month": 0,
}

// SeedAliases maps the catalog's short ids onto ledger codes.
var SeedAliases = map[string]string{
	"design_patterns":          "design_patterns_gof",
	"gof":                      "design_patterns_gof",
	"the_pragmatic_programmer": "pragmatic_programmer",
	"the_mythical_man_month":   "mythical_man_month",
}

// Seed provisions stock. It is an out-of-band operation used by cmd and tests.
func Seed(ctx context.Context, st store.InventoryStore, stock map[string]int32) error {
	for sku, qty := range stock {
		if err := st.SetStock(ctx, sku, qty); err != nil {
			return fmt.Errorf("seed %q: %w", sku, err)
		}
	}
	return nil
}
