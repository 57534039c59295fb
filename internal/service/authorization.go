package service

import (
	"fmt"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

// Authorizer answers capability checks for an explicit actor. Both engines
// consult it before acting; neither reads identity from ambient state.
type Authorizer interface {
	HasCapability(actor model.Actor, capability model.Capability) (bool, error)
}

// departmentCapabilities is the closed department-to-capability mapping. New
// departments or capabilities are added here, never string-matched elsewhere.
var departmentCapabilities = map[model.Department][]model.Capability{
	model.DeptAnalyze: {
		model.CapAnalyticsView,
		model.CapReportsExport,
		model.CapOrderView,
		model.CapProductView,
	},
	model.DeptOrderManage: {
		model.CapOrderView,
		model.CapOrderUpdate,
	},
	model.DeptProductManage: {
		model.CapProductView,
		model.CapProductCreate,
	},
	model.DeptUserManage: {
		model.CapUserView,
		model.CapUserActivate,
	},
}

// rbacModel keeps the enforcer self-contained; policies are seeded from
// departmentCapabilities at startup instead of CSV files on disk.
const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// AuthorizationService is the casbin-backed Authorizer implementation.
type AuthorizationService struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizationService builds the enforcer and loads one policy row per
// department/capability pair.
func NewAuthorizationService() (*AuthorizationService, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RBAC model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}

	for dept, caps := range departmentCapabilities {
		for _, cap := range caps {
			if _, err := enforcer.AddPolicy(string(dept), string(cap)); err != nil {
				return nil, fmt.Errorf("failed to add policy %s/%s: %w", dept, cap, err)
			}
		}
	}

	return &AuthorizationService{enforcer: enforcer}, nil
}

// HasCapability checks whether the actor's department grants the capability.
// Actors without an admin role never hold console capabilities.
func (s *AuthorizationService) HasCapability(actor model.Actor, capability model.Capability) (bool, error) {
	if actor.Role != model.RoleAdmin || actor.Department == "" {
		return false, nil
	}

	allowed, err := s.enforcer.Enforce(string(actor.Department), string(capability))
	if err != nil {
		return false, fmt.Errorf("capability check failed: %w", err)
	}
	return allowed, nil
}

// DepartmentCapabilities returns a copy of the capability set for a
// department, for display in the console.
func DepartmentCapabilities(dept model.Department) []model.Capability {
	caps := departmentCapabilities[dept]
	out := make([]model.Capability, len(caps))
	copy(out, caps)
	return out
}
