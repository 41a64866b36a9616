package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/models"
)

// Identity is who is making the request. Authentication happens at the
// edge; the core trusts the forwarded headers.
type Identity struct {
	UserID *uuid.UUID
	Actor  models.Actor
}

// Elevated reports whether the caller may perform staff-only operations
func (id Identity) Elevated() bool {
	return id.Actor.Elevated()
}

// IdentityFrom resolves the caller from the X-User-Id and X-User-Role
// headers. A missing or malformed user id yields an anonymous identity;
// an unknown role downgrades to CUSTOMER when a user id is present.
func IdentityFrom(r *http.Request) Identity {
	id := Identity{Actor: models.ActorAnonymous}

	if raw := r.Header.Get("X-User-Id"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			id.UserID = &parsed
			id.Actor = models.ActorCustomer
		}
	}

	if id.UserID == nil {
		return id
	}

	switch models.Actor(strings.ToUpper(r.Header.Get("X-User-Role"))) {
	case models.ActorStaff:
		id.Actor = models.ActorStaff
	case models.ActorAdmin:
		id.Actor = models.ActorAdmin
	}
	return id
}
