package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// GormRepository implements Repository and UserDirectory on any GORM dialect.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &GormRepository{db: db}, nil
}

// Migrate creates the inventory tables when they are missing.
func (r *GormRepository) Migrate() error {
	if err := r.db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate inventory schema: %w", err)
	}
	return nil
}

func likePattern(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}

func (r *GormRepository) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	var products []Product
	pattern := likePattern(query)
	err := r.db.WithContext(ctx).
		Where("nombre_producto LIKE ? OR clasificacion LIKE ?", pattern, pattern).
		Order("id_producto ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (r *GormRepository) SearchMachines(ctx context.Context, machineType string, limit int) ([]Machine, error) {
	var machines []Machine
	err := r.db.WithContext(ctx).
		Where("tipo_maquina LIKE ?", likePattern(machineType)).
		Order("id_maquina ASC").
		Limit(limit).
		Find(&machines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search machines: %w", err)
	}
	return machines, nil
}

func (r *GormRepository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var suppliers []Supplier
	if err := r.db.WithContext(ctx).Order("id_proveedor ASC").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *GormRepository) UpdateSupplier(ctx context.Context, id int64, changes SupplierChanges) (*Supplier, error) {
	var supplier Supplier
	if err := r.update(ctx, &supplier, "id_proveedor", id, changes.columns()); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *GormRepository) UpdateProduct(ctx context.Context, id int64, changes ProductChanges) (*Product, error) {
	var product Product
	if err := r.update(ctx, &product, "id_producto", id, changes.columns()); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepository) UpdateMachine(ctx context.Context, id int64, changes MachineChanges) (*Machine, error) {
	var machine Machine
	if err := r.update(ctx, &machine, "id_maquina", id, changes.columns()); err != nil {
		return nil, err
	}
	return &machine, nil
}

// update applies cols to the row with the given key and reloads it into dest.
// Existence is checked first because MySQL reports zero affected rows when the
// new values equal the old ones.
func (r *GormRepository) update(ctx context.Context, dest interface{}, keyColumn string, id int64, cols map[string]interface{}) error {
	if len(cols) == 0 {
		return fmt.Errorf("no fields to update")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(keyColumn+" = ?", id).First(dest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load record %d: %w", id, err)
		}
		if err := tx.Model(dest).Where(keyColumn+" = ?", id).Updates(cols).Error; err != nil {
			return fmt.Errorf("failed to update record %d: %w", id, err)
		}
		if err := tx.Where(keyColumn+" = ?", id).First(dest).Error; err != nil {
			return fmt.Errorf("failed to reload record %d: %w", id, err)
		}
		return nil
	})
}

func (r *GormRepository) FindUser(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("id_usuario = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	return &user, nil
}
