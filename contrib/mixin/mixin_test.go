package mixin_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/contrib/mixin"
	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/dialect/memory"
	"github.com/syssam/ogm/metadata"
	"github.com/syssam/ogm/schema"
	"github.com/syssam/ogm/schema/field"
	"github.com/syssam/ogm/session"
)

type Customer struct {
	ID   *int64
	Name string
	mixin.UUIDFields
	mixin.TenantFields
}

func TestEnsureUUID(t *testing.T) {
	t.Parallel()
	var f mixin.UUIDFields
	id := f.EnsureUUID()
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, id, f.EnsureUUID())
}

func TestForTenant(t *testing.T) {
	t.Parallel()
	acme := map[string]any{"TenantID": "acme", "Name": "a"}
	other := map[string]any{"TenantID": "other", "Name": "a"}

	tests := []struct {
		name    string
		filters cypher.Filters
		want    cypher.Filters
	}{
		{
			name: "empty",
			want: cypher.Filters{cypher.Where("TenantID", cypher.Equals, "acme")},
		},
		{
			name:    "and",
			filters: cypher.Filters{cypher.Where("Name", cypher.Equals, "a")},
			want: cypher.Filters{cypher.Where("TenantID", cypher.Equals, "acme")}.
				And(cypher.Where("Name", cypher.Equals, "a")),
		},
		{
			name: "or",
			filters: cypher.Filters{cypher.Where("Name", cypher.Equals, "a")}.
				Or(cypher.Where("Name", cypher.Equals, "b")),
			want: cypher.Filters{cypher.Where("TenantID", cypher.Equals, "acme")}.
				And(cypher.Where("Name", cypher.Equals, "a")).
				Or(cypher.Where("TenantID", cypher.Equals, "acme")).
				And(cypher.Where("Name", cypher.Equals, "b")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mixin.ForTenant("acme", tt.filters)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Match(acme))
			assert.False(t, got.Match(other))
		})
	}
}

func TestMixins_Session(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := metadata.New(convert.NewRegistry())
	require.NoError(t, reg.Register(
		schema.Node(Customer{}).ID("ID").Fields(field.Prop("Name")).Mixin(mixin.UUID{}, mixin.Tenant{}),
	))
	drv := memory.New()
	s := session.New(reg, drv)

	customers := []*Customer{
		{Name: "Ada", TenantFields: mixin.TenantFields{TenantID: "acme"}},
		{Name: "Bob", TenantFields: mixin.TenantFields{TenantID: "acme"}},
		{Name: "Ada", TenantFields: mixin.TenantFields{TenantID: "globex"}},
	}
	for _, c := range customers {
		c.EnsureUUID()
		require.NoError(t, s.Save(ctx, c, ogm.Unbounded))
	}

	n, ok := drv.Node(*customers[0].ID)
	require.True(t, ok)
	assert.Equal(t, customers[0].UUID.String(), n.Props["uuid"])
	assert.Equal(t, "acme", n.Props["tenant_id"])

	fresh := session.New(reg, drv)
	got, err := session.LoadAll[Customer](ctx, fresh, mixin.ByUUID(customers[2].UUID))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "globex", got[0].TenantID)
	assert.Equal(t, customers[2].UUID, got[0].UUID)

	acme, err := session.LoadAll[Customer](ctx, fresh, mixin.ForTenant("acme", cypher.Filters{cypher.Where("Name", cypher.Equals, "Ada")}))
	require.NoError(t, err)
	require.Len(t, acme, 1)
	assert.Equal(t, *customers[0].ID, *acme[0].ID)
}
