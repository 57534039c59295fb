package service

import (
	"context"
	"testing"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The capability check runs before any database access, so a nil handle is
// safe for the denial paths.
func TestUserServiceDeniedWithoutCapability(t *testing.T) {
	svc := NewUserService(nil, &staticAuthorizer{caps: map[model.Capability]bool{}}, zap.NewNop())
	actor := adminActor(model.DeptOrderManage)

	_, err := svc.ListUsers(context.Background(), model.RoleCustomer, 1, 20, actor)
	if !model.IsKind(err, model.KindAccessDenied) {
		t.Errorf("ListUsers: want ACCESS_DENIED, got %v", err)
	}

	_, err = svc.GetUser(context.Background(), uuid.New(), actor)
	if !model.IsKind(err, model.KindAccessDenied) {
		t.Errorf("GetUser: want ACCESS_DENIED, got %v", err)
	}

	_, err = svc.SetUserActive(context.Background(), uuid.New(), false, actor)
	if !model.IsKind(err, model.KindAccessDenied) {
		t.Errorf("SetUserActive: want ACCESS_DENIED, got %v", err)
	}
}
