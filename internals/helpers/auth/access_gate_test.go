package auth

import (
	"testing"

	"policyhub_backend/internals/constants"
)

func TestAllowsMatrix(t *testing.T) {
	tests := []struct {
		name string
		role string
		op   Operation
		res  Resource
		want bool
	}{
		{"admin may delete users", constants.RoleAdmin, OpDelete, ResUser, true},
		{"admin may restore policies", constants.RoleAdmin, OpRestore, ResPolicy, true},
		{"admin may toggle visibility", constants.RoleAdmin, OpToggleVisibility, ResPolicy, true},

		{"manager may create categories", constants.RolePolicyManager, OpCreate, ResCategory, true},
		{"manager may update types", constants.RolePolicyManager, OpUpdate, ResPolicyType, true},
		{"manager may replace documents", constants.RolePolicyManager, OpReplaceDocument, ResPolicy, true},
		{"manager may not delete categories", constants.RolePolicyManager, OpDelete, ResCategory, false},
		{"manager may not restore policies", constants.RolePolicyManager, OpRestore, ResPolicy, false},
		{"manager may not toggle visibility", constants.RolePolicyManager, OpToggleVisibility, ResPolicy, false},
		{"manager may not approve users", constants.RolePolicyManager, OpApprove, ResUser, false},
		{"manager may not read users", constants.RolePolicyManager, OpRead, ResUser, false},

		{"user may read policies", constants.RoleUser, OpRead, ResPolicy, true},
		{"user may read categories", constants.RoleUser, OpRead, ResCategory, true},
		{"user may not create policies", constants.RoleUser, OpCreate, ResPolicy, false},
		{"user may not change roles", constants.RoleUser, OpChangeRole, ResUser, false},

		{"anonymous may do nothing", "", OpRead, ResPolicy, false},
		{"unknown role may do nothing", "superuser", OpRead, ResPolicy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allows(tt.role, tt.op, tt.res); got != tt.want {
				t.Fatalf("Allows(%q, %q, %q) = %v, want %v", tt.role, tt.op, tt.res, got, tt.want)
			}
		})
	}
}

func TestRequireReturnsForbidden(t *testing.T) {
	actor := Actor{Role: constants.RoleUser}
	if err := Require(actor, OpCreate, ResPolicy); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := Require(Actor{Role: constants.RoleAdmin}, OpCreate, ResPolicy); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestCanViewPolicy(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		visible   bool
		isDeleted bool
		want      bool
	}{
		{"everyone sees live visible", constants.RoleUser, true, false, true},
		{"user blocked from hidden", constants.RoleUser, false, false, false},
		{"manager sees hidden", constants.RolePolicyManager, false, false, true},
		{"manager blocked from deleted", constants.RolePolicyManager, true, true, false},
		{"admin sees deleted", constants.RoleAdmin, false, true, true},
		{"anonymous sees live visible", "", true, false, true},
		{"anonymous blocked from hidden", "", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewPolicy(tt.role, tt.visible, tt.isDeleted); got != tt.want {
				t.Fatalf("CanViewPolicy(%q, %v, %v) = %v, want %v", tt.role, tt.visible, tt.isDeleted, got, tt.want)
			}
		})
	}
}
