package edge_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/schema/edge"
)

// Test types for edge testing.
type (
	Person struct{}
	Movie  struct{}
	Role   struct{}
)

func TestEdgeBuilders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		build    func() *edge.Descriptor
		validate func(t *testing.T, desc *edge.Descriptor)
	}{
		{
			name: "outgoing",
			build: func() *edge.Descriptor {
				return edge.To("Friends", Person{}).Descriptor()
			},
			validate: func(t *testing.T, desc *edge.Descriptor) {
				assert.Equal(t, "Friends", desc.Name)
				assert.Equal(t, ogm.Outgoing, desc.Direction)
				assert.Equal(t, reflect.TypeOf(Person{}), desc.Target)
				assert.Empty(t, desc.Type)
				assert.NoError(t, desc.Err)
			},
		},
		{
			name: "incoming_pointer_target",
			build: func() *edge.Descriptor {
				return edge.From("Cast", &Role{}).Descriptor()
			},
			validate: func(t *testing.T, desc *edge.Descriptor) {
				assert.Equal(t, ogm.Incoming, desc.Direction)
				assert.Equal(t, reflect.TypeOf(Role{}), desc.Target)
			},
		},
		{
			name: "undirected_with_type",
			build: func() *edge.Descriptor {
				return edge.Both("Knows", Person{}).Type("KNOWS").Comment("mutual").Descriptor()
			},
			validate: func(t *testing.T, desc *edge.Descriptor) {
				assert.Equal(t, ogm.Undirected, desc.Direction)
				assert.Equal(t, "KNOWS", desc.Type)
				assert.Equal(t, "mutual", desc.Comment)
			},
		},
		{
			name: "invalid_target",
			build: func() *edge.Descriptor {
				return edge.To("Movies", "Movie").Descriptor()
			},
			validate: func(t *testing.T, desc *edge.Descriptor) {
				assert.Error(t, desc.Err)
			},
		},
		{
			name: "nil_target",
			build: func() *edge.Descriptor {
				return edge.To("Movies", nil).Descriptor()
			},
			validate: func(t *testing.T, desc *edge.Descriptor) {
				assert.Error(t, desc.Err)
				assert.Nil(t, desc.Target)
			},
		},
		{
			name: "empty_name_and_type",
			build: func() *edge.Descriptor {
				return edge.To("", Movie{}).Type("").Descriptor()
			},
			validate: func(t *testing.T, desc *edge.Descriptor) {
				assert.Error(t, desc.Err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.validate(t, tt.build())
		})
	}
}
