package service

import (
	"testing"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
)

func adminActor(dept model.Department) model.Actor {
	return model.Actor{
		UserID:     uuid.New(),
		Email:      "admin@console.local",
		Role:       model.RoleAdmin,
		Department: dept,
	}
}

func TestDepartmentCapabilityMatrix(t *testing.T) {
	svc, err := NewAuthorizationService()
	if err != nil {
		t.Fatalf("failed to build authorization service: %v", err)
	}

	allCaps := []model.Capability{
		model.CapAnalyticsView, model.CapReportsExport,
		model.CapOrderView, model.CapOrderUpdate,
		model.CapProductView, model.CapProductCreate,
		model.CapUserView, model.CapUserActivate,
	}

	granted := map[model.Department]map[model.Capability]bool{
		model.DeptAnalyze: {
			model.CapAnalyticsView: true, model.CapReportsExport: true,
			model.CapOrderView: true, model.CapProductView: true,
		},
		model.DeptOrderManage: {
			model.CapOrderView: true, model.CapOrderUpdate: true,
		},
		model.DeptProductManage: {
			model.CapProductView: true, model.CapProductCreate: true,
		},
		model.DeptUserManage: {
			model.CapUserView: true, model.CapUserActivate: true,
		},
	}

	for dept, caps := range granted {
		for _, capability := range allCaps {
			allowed, err := svc.HasCapability(adminActor(dept), capability)
			if err != nil {
				t.Fatalf("%s/%s: unexpected error: %v", dept, capability, err)
			}
			if allowed != caps[capability] {
				t.Errorf("%s/%s: allowed = %v, want %v", dept, capability, allowed, caps[capability])
			}
		}
	}
}

func TestNonAdminNeverHoldsCapabilities(t *testing.T) {
	svc, err := NewAuthorizationService()
	if err != nil {
		t.Fatalf("failed to build authorization service: %v", err)
	}

	customer := model.Actor{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		Role:   model.RoleCustomer,
		// A department on a customer account must not grant anything.
		Department: model.DeptAnalyze,
	}
	allowed, err := svc.HasCapability(customer, model.CapAnalyticsView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("customer role was granted a console capability")
	}
}

func TestAdminWithoutDepartmentHoldsNothing(t *testing.T) {
	svc, err := NewAuthorizationService()
	if err != nil {
		t.Fatalf("failed to build authorization service: %v", err)
	}

	actor := adminActor("")
	for _, capability := range []model.Capability{model.CapOrderView, model.CapAnalyticsView} {
		allowed, err := svc.HasCapability(actor, capability)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if allowed {
			t.Errorf("admin without department was granted %s", capability)
		}
	}
}

func TestUnknownDepartmentHoldsNothing(t *testing.T) {
	svc, err := NewAuthorizationService()
	if err != nil {
		t.Fatalf("failed to build authorization service: %v", err)
	}

	allowed, err := svc.HasCapability(adminActor("LOGISTICS"), model.CapOrderView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("unknown department was granted a capability")
	}
}
