package inventory_tools

import (
	"context"
	"fmt"

	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/registry"
	"go.uber.org/zap"
)

func (t *Toolset) listSuppliers(ctx context.Context, _ map[string]interface{}) (string, error) {
	suppliers, err := t.repo.ListSuppliers(ctx)
	if err != nil {
		t.logger.Error("list_suppliers failed", zap.Error(err))
		return registry.Fail(msgSuppliersError, err)
	}
	if suppliers == nil {
		suppliers = []inventory.Supplier{}
	}
	return toJSON(suppliers), nil
}

func (t *Toolset) updateSupplier(ctx context.Context, raw map[string]interface{}) (string, error) {
	args := registry.Arguments(raw)
	id, _ := args.Int("id")

	var changes inventory.SupplierChanges
	if name, ok := args.String("name"); ok {
		if name == "" {
			return "El nombre del proveedor no puede quedar vacío.", nil
		}
		changes.Name = &name
	}
	if phone, ok := args.String("phone"); ok {
		changes.Phone = &phone
	}
	if email, ok := args.String("email"); ok {
		changes.Email = &email
	}
	if changes.IsEmpty() {
		return fmt.Sprintf(msgNothingToUpdate, "el proveedor", id), nil
	}

	supplier, err := t.repo.UpdateSupplier(ctx, id, changes)
	if err != nil {
		return updateFailure(t.logger, "el proveedor", id, err)
	}
	return toJSON(supplier), nil
}
