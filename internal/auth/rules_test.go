package auth

import (
	"errors"
	"testing"

	"campusconnect/internal/model"
)

func TestEvaluate(t *testing.T) {
	student := &Principal{ID: 7, Role: model.RoleStudent}
	admin := &Principal{ID: 1, Role: model.RoleAdmin}

	cases := []struct {
		name      string
		rule      Rule
		principal *Principal
		targetID  int64
		want      error
	}{
		{"public anonymous", Public(), nil, 0, nil},
		{"public authenticated", Public(), student, 0, nil},
		{"authenticated missing", Authenticated(), nil, 0, ErrUnauthenticated},
		{"authenticated present", Authenticated(), student, 0, nil},
		{"role match", RequireRole(model.RoleAdmin), admin, 0, nil},
		{"role mismatch", RequireRole(model.RoleAdmin), student, 0, ErrForbidden},
		{"role missing principal", RequireRole(model.RoleAdmin), nil, 0, ErrUnauthenticated},
		{"self allowed", RequireRoleOrSelf(model.RoleAdmin), student, 7, nil},
		{"other denied", RequireRoleOrSelf(model.RoleAdmin), student, 8, ErrForbidden},
		{"admin allowed on other", RequireRoleOrSelf(model.RoleAdmin), admin, 8, nil},
		{"self missing principal", RequireRoleOrSelf(model.RoleAdmin), nil, 7, ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.rule, tc.principal, tc.targetID)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
