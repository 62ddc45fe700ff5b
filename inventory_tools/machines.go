package inventory_tools

import (
	"context"
	"fmt"

	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/registry"
	"go.uber.org/zap"
)

func (t *Toolset) searchMachines(ctx context.Context, raw map[string]interface{}) (string, error) {
	machineType, _ := registry.Arguments(raw).String("type")

	machines, err := t.repo.SearchMachines(ctx, machineType, machineSearchLimit)
	if err != nil {
		t.logger.Error("search_machines failed", zap.String("type", machineType), zap.Error(err))
		return registry.Fail(msgMachinesError, err)
	}
	if len(machines) == 0 {
		return msgNoMachines, nil
	}
	return toJSON(machines), nil
}

func (t *Toolset) updateMachine(ctx context.Context, raw map[string]interface{}) (string, error) {
	args := registry.Arguments(raw)
	id, _ := args.Int("id")

	var changes inventory.MachineChanges
	if usage, ok := args.String("usage"); ok {
		changes.Usage = &usage
	}
	if note, ok := args.String("note"); ok {
		changes.Note = &note
	}
	if changes.IsEmpty() {
		return fmt.Sprintf(msgNothingToUpdate, "la máquina", id), nil
	}

	machine, err := t.repo.UpdateMachine(ctx, id, changes)
	if err != nil {
		return updateFailure(t.logger, "la máquina", id, err)
	}
	return toJSON(machine), nil
}
