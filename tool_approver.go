package stockagent

import (
	"strings"

	"github.com/Desarso/stockagent/models"
)

// Tool_Approver decides whether a user with the given role may run a tool.
// Read-only tools are always approved; mutating tools are refused for roles
// listed in readOnlyRoles.
func Tool_Approver(role string, tool models.FunctionDeclaration, readOnlyRoles []string) bool {
	if !tool.Mutating {
		return true
	}
	for _, r := range readOnlyRoles {
		if strings.EqualFold(strings.TrimSpace(r), strings.TrimSpace(role)) {
			return false
		}
	}
	return true
}
