package inventory_tools

import (
	"context"
	"fmt"

	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/registry"
	"go.uber.org/zap"
)

func (t *Toolset) searchProducts(ctx context.Context, raw map[string]interface{}) (string, error) {
	args := registry.Arguments(raw)
	query, _ := args.String("query")

	products, err := t.repo.SearchProducts(ctx, query, productSearchLimit)
	if err != nil {
		t.logger.Error("search_products failed", zap.String("query", query), zap.Error(err))
		return registry.Fail(msgProductsError, err)
	}
	if len(products) == 0 {
		return msgNoProducts, nil
	}
	return toJSON(products), nil
}

func (t *Toolset) updateProduct(ctx context.Context, raw map[string]interface{}) (string, error) {
	args := registry.Arguments(raw)
	id, _ := args.Int("id")

	var changes inventory.ProductChanges
	if total, ok := args.Int("total"); ok {
		if total < 0 {
			return fmt.Sprintf("El total no puede ser negativo (recibido %d).", total), nil
		}
		changes.Total = &total
	}
	if price, ok := args.Float("publicPrice"); ok {
		s, err := formatDecimal(price)
		if err != nil {
			return fmt.Sprintf("Precio público inválido: %v", err), nil
		}
		changes.PublicPrice = &s
	}
	if cost, ok := args.Float("unitCost"); ok {
		s, err := formatDecimal(cost)
		if err != nil {
			return fmt.Sprintf("Costo por unidad inválido: %v", err), nil
		}
		changes.UnitCost = &s
	}
	if class, ok := args.String("classification"); ok {
		changes.Classification = &class
	}

	if changes.IsEmpty() {
		return fmt.Sprintf(msgNothingToUpdate, "el producto", id), nil
	}

	product, err := t.repo.UpdateProduct(ctx, id, changes)
	if err != nil {
		return updateFailure(t.logger, "el producto", id, err)
	}
	return toJSON(product), nil
}
