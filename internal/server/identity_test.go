package server

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/models"
)

func TestIdentityFrom(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		userID    string
		role      string
		wantActor models.Actor
		wantUser  bool
	}{
		{
			name:      "no headers means anonymous",
			wantActor: models.ActorAnonymous,
		},
		{
			name:      "user id without role is a customer",
			userID:    userID.String(),
			wantActor: models.ActorCustomer,
			wantUser:  true,
		},
		{
			name:      "staff role is honored",
			userID:    userID.String(),
			role:      "STAFF",
			wantActor: models.ActorStaff,
			wantUser:  true,
		},
		{
			name:      "role header is case-insensitive",
			userID:    userID.String(),
			role:      "admin",
			wantActor: models.ActorAdmin,
			wantUser:  true,
		},
		{
			name:      "unknown role downgrades to customer",
			userID:    userID.String(),
			role:      "SUPERUSER",
			wantActor: models.ActorCustomer,
			wantUser:  true,
		},
		{
			name:      "role without user id stays anonymous",
			role:      "ADMIN",
			wantActor: models.ActorAnonymous,
		},
		{
			name:      "malformed user id stays anonymous",
			userID:    "not-a-uuid",
			role:      "STAFF",
			wantActor: models.ActorAnonymous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/orders", nil)
			if tt.userID != "" {
				r.Header.Set("X-User-Id", tt.userID)
			}
			if tt.role != "" {
				r.Header.Set("X-User-Role", tt.role)
			}

			id := IdentityFrom(r)
			if id.Actor != tt.wantActor {
				t.Errorf("IdentityFrom() actor = %s, want %s", id.Actor, tt.wantActor)
			}
			if tt.wantUser != (id.UserID != nil) {
				t.Errorf("IdentityFrom() user id presence = %v, want %v", id.UserID != nil, tt.wantUser)
			}
			if tt.wantUser && *id.UserID != userID {
				t.Errorf("IdentityFrom() user id = %s, want %s", id.UserID, userID)
			}
		})
	}
}
