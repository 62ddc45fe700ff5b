// Package inventory_tools declares the tools the agent can call against the
// inventory data store.
package inventory_tools

import (
	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/models"
	"github.com/Desarso/stockagent/registry"
	"go.uber.org/zap"
)

// Toolset binds the tool handlers to a repository.
type Toolset struct {
	repo   inventory.Repository
	logger *zap.Logger
}

func NewToolset(repo inventory.Repository, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolset{repo: repo, logger: logger.Named("tools")}
}

// SearchProductsTool returns a FunctionDeclaration for product search.
func (t *Toolset) SearchProductsTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "search_products",
		Description: "Útil para buscar información, precios o stock de productos en el inventario. Busca por nombre o clasificación y devuelve hasta 5 resultados.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "El nombre del producto o categoría a buscar",
				},
			},
			Required: []string{"query"},
		},
		Handler: t.searchProducts,
	}
}

// SearchMachinesTool returns a FunctionDeclaration for machine lookup.
func (t *Toolset) SearchMachinesTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "search_machines",
		Description: "Busca detalles técnicos de las máquinas disponibles (motor, hp, uso, etc). Devuelve hasta 3 resultados.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "El tipo o nombre de la máquina",
				},
			},
			Required: []string{"type"},
		},
		Handler: t.searchMachines,
	}
}

func (t *Toolset) ListSuppliersTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "list_suppliers",
		Description: "Muestra la lista de proveedores registrados con su contacto.",
		Parameters: models.Parameters{
			Type:       "object",
			Properties: map[string]interface{}{},
			Required:   []string{},
		},
		Handler: t.listSuppliers,
	}
}

func (t *Toolset) UpdateSupplierTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "update_supplier",
		Description: "Actualiza los datos de contacto de un proveedor. Solo se modifican los campos enviados.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"id":    map[string]interface{}{"type": "integer", "description": "ID del proveedor"},
				"name":  map[string]interface{}{"type": "string", "description": "Nuevo nombre"},
				"phone": map[string]interface{}{"type": "string", "description": "Nuevo teléfono"},
				"email": map[string]interface{}{"type": "string", "description": "Nuevo correo"},
			},
			Required: []string{"id"},
		},
		Handler:  t.updateSupplier,
		Mutating: true,
	}
}

func (t *Toolset) UpdateProductTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "update_product",
		Description: "Actualiza el stock, precios o clasificación de un producto. Solo se modifican los campos enviados.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"id":             map[string]interface{}{"type": "integer", "description": "ID del producto"},
				"total":          map[string]interface{}{"type": "integer", "description": "Existencias totales"},
				"publicPrice":    map[string]interface{}{"type": "number", "description": "Precio al público"},
				"unitCost":       map[string]interface{}{"type": "number", "description": "Costo por unidad"},
				"classification": map[string]interface{}{"type": "string", "description": "Clasificación del producto"},
			},
			Required: []string{"id"},
		},
		Handler:  t.updateProduct,
		Mutating: true,
	}
}

func (t *Toolset) UpdateMachineTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "update_machine",
		Description: "Actualiza el uso o el comentario adicional de una máquina. Solo se modifican los campos enviados.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"id":    map[string]interface{}{"type": "integer", "description": "ID de la máquina"},
				"usage": map[string]interface{}{"type": "string", "description": "Uso de la máquina"},
				"note":  map[string]interface{}{"type": "string", "description": "Comentario adicional"},
			},
			Required: []string{"id"},
		},
		Handler:  t.updateMachine,
		Mutating: true,
	}
}

// DefaultTools returns every inventory tool.
func (t *Toolset) DefaultTools() []models.FunctionDeclaration {
	return []models.FunctionDeclaration{
		t.SearchProductsTool(),
		t.SearchMachinesTool(),
		t.ListSuppliersTool(),
		t.UpdateSupplierTool(),
		t.UpdateProductTool(),
		t.UpdateMachineTool(),
	}
}

// NewRegistry registers DefaultTools in a sealed registry.
func NewRegistry(repo inventory.Repository, logger *zap.Logger) (*registry.Registry, error) {
	reg := registry.New()
	for _, decl := range NewToolset(repo, logger).DefaultTools() {
		if err := reg.Register(decl); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}
