// Package inventory is the relational data store the agent's tools read and update.
package inventory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// Repository is the data-store contract used by the tool executors.
type Repository interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
	SearchMachines(ctx context.Context, machineType string, limit int) ([]Machine, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	UpdateSupplier(ctx context.Context, id int64, changes SupplierChanges) (*Supplier, error)
	UpdateProduct(ctx context.Context, id int64, changes ProductChanges) (*Product, error)
	UpdateMachine(ctx context.Context, id int64, changes MachineChanges) (*Machine, error)
}

// UserDirectory resolves dashboard users.
type UserDirectory interface {
	FindUser(ctx context.Context, id int64) (*User, error)
}

// SupplierChanges holds the fields an update touches; nil means "leave as is".
type SupplierChanges struct {
	Name  *string
	Phone *string
	Email *string
}

func (c SupplierChanges) IsEmpty() bool {
	return c.Name == nil && c.Phone == nil && c.Email == nil
}

func (c SupplierChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Name != nil {
		cols["nombre"] = *c.Name
	}
	if c.Phone != nil {
		cols["telefono"] = *c.Phone
	}
	if c.Email != nil {
		cols["correo"] = *c.Email
	}
	return cols
}

// ProductChanges prices are already in their persisted two-decimal form.
type ProductChanges struct {
	Total          *int64
	PublicPrice    *string
	UnitCost       *string
	Classification *string
}

func (c ProductChanges) IsEmpty() bool {
	return c.Total == nil && c.PublicPrice == nil && c.UnitCost == nil && c.Classification == nil
}

func (c ProductChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Total != nil {
		cols["total"] = *c.Total
	}
	if c.PublicPrice != nil {
		cols["precio_publico"] = *c.PublicPrice
	}
	if c.UnitCost != nil {
		cols["costo_por_unidad"] = *c.UnitCost
	}
	if c.Classification != nil {
		cols["clasificacion"] = *c.Classification
	}
	return cols
}

type MachineChanges struct {
	Usage *string
	Note  *string
}

func (c MachineChanges) IsEmpty() bool {
	return c.Usage == nil && c.Note == nil
}

func (c MachineChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Usage != nil {
		cols["uso"] = *c.Usage
	}
	if c.Note != nil {
		cols["comentario_adicional"] = *c.Note
	}
	return cols
}
