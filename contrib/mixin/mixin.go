// Package mixin provides optional mixins for multi-tenant graphs and stable
// external identifiers.
//
// Graph identities are assigned by the server and may be reused after a
// delete. Objects exposed outside the application usually carry their own
// identifier instead:
//
//	type Customer struct {
//		ID   *int64
//		Name string
//		mixin.UUIDFields
//		mixin.TenantFields
//	}
//
//	schema.Node(Customer{}).
//		ID("ID").
//		Fields(field.Prop("Name")).
//		Mixin(mixin.UUID{}, mixin.Tenant{})
package mixin

import (
	"github.com/google/uuid"

	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/schema"
	"github.com/syssam/ogm/schema/field"
	"github.com/syssam/ogm/schema/mixin"
)

// UUIDFields holds the external identifier mapped by UUID.
type UUIDFields struct {
	UUID uuid.UUID
}

// EnsureUUID assigns a random identifier when none is set and returns the
// current one.
func (f *UUIDFields) EnsureUUID() uuid.UUID {
	if f.UUID == uuid.Nil {
		f.UUID = uuid.New()
	}
	return f.UUID
}

// UUID maps the uuid property of an embedded UUIDFields.
type UUID struct{ mixin.Schema }

// Fields of the UUID mixin.
func (UUID) Fields() []schema.Field {
	return []schema.Field{
		field.Prop("UUID").Key("uuid").Comment("Stable external identifier"),
	}
}

// ByUUID returns the filter selecting the object with identifier id.
func ByUUID(id uuid.UUID) cypher.Filters {
	return cypher.Filters{cypher.Where("UUID", cypher.Equals, id)}
}

// TenantFields holds the tenant mapped by Tenant.
type TenantFields struct {
	TenantID string
}

// Tenant maps the tenant_id property of an embedded TenantFields.
//
// For other partition keys declare a mixin of your own:
//
//	type Workspace struct{ mixin.Schema }
//
//	func (Workspace) Fields() []schema.Field {
//		return []schema.Field{field.Prop("WorkspaceID").Key("workspace_id")}
//	}
type Tenant struct{ mixin.Schema }

// Fields of the Tenant mixin.
func (Tenant) Fields() []schema.Field {
	return []schema.Field{
		field.Prop("TenantID").Key("tenant_id").Comment("Owning tenant"),
	}
}

// ForTenant scopes filters to tenant. The tenant condition is added to
// every OR branch of the chain.
func ForTenant(tenant string, filters cypher.Filters) cypher.Filters {
	scope := cypher.Where("TenantID", cypher.Equals, tenant)
	if len(filters) == 0 {
		return cypher.Filters{scope}
	}
	var scoped cypher.Filters
	for i, f := range filters {
		switch {
		case i == 0:
			scoped = cypher.Filters{scope}
		case f.Operator == cypher.Or:
			scoped = scoped.Or(scope)
		}
		scoped = scoped.And(f)
	}
	return scoped
}

var (
	_ schema.Mixin = UUID{}
	_ schema.Mixin = Tenant{}
)
