package inventory_tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/registry"
	"go.uber.org/zap"
)

const (
	productSearchLimit = 5
	machineSearchLimit = 3
)

// Texts the model receives. They stay in Spanish because the dashboard users do.
const (
	msgNoProducts      = "No se encontraron productos con ese criterio."
	msgNoMachines      = "No hay máquinas registradas con ese nombre."
	msgProductsError   = "Error al consultar la base de datos de productos."
	msgMachinesError   = "Error al consultar la maquinaria."
	msgSuppliersError  = "Error al leer proveedores."
	msgNothingToUpdate = "No hay nada que actualizar para %s %d: no se proporcionó ningún campo."
	msgNotFound        = "No existe %s con ID %d."
	msgUpdateError     = "Error al actualizar %s %d."
)

// toJSON serialises records for the model. Marshal failures fall back to a diagnostic.
func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("Error al serializar el resultado: %v", err)
	}
	return string(data)
}

// formatDecimal renders a price the way decimal(10,2) columns store it.
func formatDecimal(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("invalid amount %v", v)
	}
	if v < 0 {
		return "", fmt.Errorf("amount %v must not be negative", v)
	}
	if v >= 1e8 {
		return "", fmt.Errorf("amount %v exceeds decimal(10,2)", v)
	}
	return strconv.FormatFloat(v, 'f', 2, 64), nil
}

// updateFailure converts a repository error into the text shown to the model.
// The call is reported as failed either way, since nothing was written.
func updateFailure(log *zap.Logger, entity string, id int64, err error) (string, error) {
	if errors.Is(err, inventory.ErrNotFound) {
		return registry.Fail(fmt.Sprintf(msgNotFound, entity, id), err)
	}
	log.Error("update failed", zap.String("entity", entity), zap.Int64("id", id), zap.Error(err))
	return registry.Fail(fmt.Sprintf(msgUpdateError, entity, id), err)
}
