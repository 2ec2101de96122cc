package auth

import (
	"errors"

	"campusconnect/internal/model"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type ruleKind int

const (
	rulePublic ruleKind = iota
	ruleAuthenticated
	ruleRole
	ruleRoleOrSelf
)

// Rule declares who may perform an operation. Rules are evaluated against an
// explicit principal (possibly nil) instead of annotations interpreted at
// runtime.
type Rule struct {
	kind ruleKind
	role model.Role
}

func Public() Rule {
	return Rule{kind: rulePublic}
}

func Authenticated() Rule {
	return Rule{kind: ruleAuthenticated}
}

func RequireRole(role model.Role) Rule {
	return Rule{kind: ruleRole, role: role}
}

// RequireRoleOrSelf allows the given role, or any principal whose id equals
// the target id supplied at evaluation time.
func RequireRoleOrSelf(role model.Role) Rule {
	return Rule{kind: ruleRoleOrSelf, role: role}
}

// Evaluate returns nil on allow, ErrUnauthenticated when a principal is
// required but absent, and ErrForbidden when the principal lacks rights.
func Evaluate(rule Rule, principal *Principal, targetID int64) error {
	if rule.kind == rulePublic {
		return nil
	}
	if principal == nil {
		return ErrUnauthenticated
	}
	switch rule.kind {
	case ruleAuthenticated:
		return nil
	case ruleRole:
		if principal.Role == rule.role {
			return nil
		}
		return ErrForbidden
	case ruleRoleOrSelf:
		if principal.Role == rule.role || principal.ID == targetID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
