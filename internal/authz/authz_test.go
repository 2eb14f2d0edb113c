package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sitekit/sitekit/internal/hook"
)

func TestDefaultGates(t *testing.T) {
	ctx := context.Background()
	g := New(nil, hook.NewRegistry())

	cases := []struct {
		role string
		gate string
		want bool
	}{
		{RoleSuperAdmin, GateManageSettings, true},
		{RoleAdmin, GateManageUsers, true},
		{RoleAdmin, GateBypassMaintenance, true},
		{RoleUser, GateManageUsers, false},
		{RoleUser, GateViewAdmin, false},
		{RoleUser, GateBypassMaintenance, false},
		{"", GateViewAdmin, false},
		{RoleAdmin, "unknown-gate", false},
	}
	for _, tc := range cases {
		if got := g.Allows(ctx, tc.role, tc.gate); got != tc.want {
			t.Fatalf("Allows(%q, %q) = %v, want %v", tc.role, tc.gate, got, tc.want)
		}
	}
}

func TestGateFilterCanOverrideDecision(t *testing.T) {
	ctx := context.Background()
	hooks := hook.NewRegistry()
	g := New(nil, hooks)

	hooks.AddFilter("authz.gate.manage-users", "grant-support", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		if role, _ := args[0].(string); role == "support" {
			return true
		}
		return v
	}, hook.DefaultPriority)

	if !g.Allows(ctx, "support", GateManageUsers) {
		t.Fatal("filter grant was not honored")
	}
	if g.Allows(ctx, RoleUser, GateManageUsers) {
		t.Fatal("filter leaked permission to unrelated role")
	}
	if !g.Allows(ctx, RoleAdmin, GateManageUsers) {
		t.Fatal("filter removed default admin permission")
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gates.yaml")
	content := "gates:\n  manage-settings:\n    - super_admin\n  custom-gate:\n    - admin\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write gates file: %v", err)
	}

	g, err := Load(path, hook.NewRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx := context.Background()
	// Overridden: admin lost manage-settings.
	if g.Allows(ctx, RoleAdmin, GateManageSettings) {
		t.Fatal("override did not replace default role list")
	}
	if !g.Allows(ctx, RoleSuperAdmin, GateManageSettings) {
		t.Fatal("override dropped super_admin")
	}
	// New gate from file.
	if !g.Allows(ctx, RoleAdmin, "custom-gate") {
		t.Fatal("custom gate not loaded")
	}
	// Untouched default remains.
	if !g.Allows(ctx, RoleAdmin, GateManageUsers) {
		t.Fatal("default gate lost after partial override")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/gates.yaml", hook.NewRegistry()); err == nil {
		t.Fatal("expected error for missing gates file")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(RoleAdmin) || !IsAdmin(RoleSuperAdmin) {
		t.Fatal("admin roles not recognized")
	}
	if IsAdmin(RoleUser) || IsAdmin("") {
		t.Fatal("non-admin role recognized as admin")
	}
}
