// Package authz maps user roles to named permission gates. Gate definitions
// ship with sensible defaults and can be overridden from a YAML file.
package authz

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sitekit/sitekit/internal/hook"
)

// Role names, ordered by privilege.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Gate names.
const (
	GateViewAdmin         = "view-admin"
	GateManageUsers       = "manage-users"
	GateManageSettings    = "manage-settings"
	GateBypassMaintenance = "bypass-maintenance"
)

// hookGatePrefix forms the per-gate filter name, e.g. authz.gate.manage-users.
const hookGatePrefix = "authz.gate."

// Gates resolves role/gate checks.
type Gates struct {
	gates map[string]map[string]bool // gate -> role set
	hooks *hook.Registry
}

// gatesFile is the YAML shape for gate overrides.
type gatesFile struct {
	Gates map[string][]string `yaml:"gates"`
}

// Defaults returns the built-in gate table.
func Defaults() map[string][]string {
	return map[string][]string{
		GateViewAdmin:         {RoleAdmin, RoleSuperAdmin},
		GateManageUsers:       {RoleAdmin, RoleSuperAdmin},
		GateManageSettings:    {RoleSuperAdmin, RoleAdmin},
		GateBypassMaintenance: {RoleAdmin, RoleSuperAdmin},
	}
}

// New builds a Gates table from definitions, falling back to Defaults when
// definitions is nil.
func New(definitions map[string][]string, hooks *hook.Registry) *Gates {
	if definitions == nil {
		definitions = Defaults()
	}
	if hooks == nil {
		hooks = hook.Default
	}

	gates := make(map[string]map[string]bool, len(definitions))
	for gate, roles := range definitions {
		set := make(map[string]bool, len(roles))
		for _, role := range roles {
			set[role] = true
		}
		gates[gate] = set
	}
	return &Gates{gates: gates, hooks: hooks}
}

// Load reads gate overrides from a YAML file. Gates named in the file
// replace the default role list; unnamed gates keep their defaults.
func Load(path string, hooks *hook.Registry) (*Gates, error) {
	definitions := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read gates file: %w", err)
		}
		var file gatesFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse gates file: %w", err)
		}
		for gate, roles := range file.Gates {
			definitions[gate] = roles
		}
	}
	return New(definitions, hooks), nil
}

// Allows reports whether role passes the named gate. The decision runs
// through the authz.gate.<name> filter, so plugins can widen or narrow a
// gate at runtime.
func (g *Gates) Allows(ctx context.Context, role, gate string) bool {
	allowed := false
	if set, ok := g.gates[gate]; ok {
		allowed = set[role]
	}

	out := g.hooks.ApplyFilters(ctx, hookGatePrefix+gate, allowed, role)
	if decision, ok := out.(bool); ok {
		return decision
	}
	return allowed
}

// IsAdmin reports whether role is an administrative role.
func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
