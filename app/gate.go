package app

import (
	"context"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// SchemaGate checks the verb against the resolved schema's own
// permission flags. Privileged principals bypass the flags entirely.
type SchemaGate struct{}

// Allow implements ports.PermissionGate.
func (SchemaGate) Allow(_ context.Context, p ports.Principal, s *schema.Schema, verb ports.Verb) bool {
	if p.Privileged {
		return true
	}
	switch verb {
	case ports.VerbView:
		return s.Permissions.View
	case ports.VerbEdit:
		return s.Permissions.Edit
	case ports.VerbDelete:
		return s.Permissions.Delete
	case ports.VerbCreate:
		return s.Permissions.Create
	}
	return false
}

// OpenGate grants every verb. The default when no gate is configured.
type OpenGate struct{}

// Allow implements ports.PermissionGate.
func (OpenGate) Allow(context.Context, ports.Principal, *schema.Schema, ports.Verb) bool {
	return true
}

var (
	_ ports.PermissionGate = SchemaGate{}
	_ ports.PermissionGate = OpenGate{}
)
