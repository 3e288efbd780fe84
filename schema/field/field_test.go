package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/schema/field"
)

type Status int

const (
	Active Status = iota
	Suspended
)

func TestProp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		build    func() *field.Descriptor
		validate func(t *testing.T, desc *field.Descriptor)
	}{
		{
			name: "default_key",
			build: func() *field.Descriptor {
				return field.Prop("PrimitiveIntArray").Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
				assert.Equal(t, "PrimitiveIntArray", desc.Name)
				assert.Equal(t, "primitiveIntArray", desc.Key)
				assert.Nil(t, desc.Converter)
				assert.Empty(t, desc.EnumValues)
				assert.NoError(t, desc.Err)
			},
		},
		{
			name: "acronym_key",
			build: func() *field.Descriptor {
				return field.Prop("UserID").Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
				assert.Equal(t, "userID", desc.Key)
			},
		},
		{
			name: "explicit_key",
			build: func() *field.Descriptor {
				return field.Prop("Title").Key("movie_title").Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
				assert.Equal(t, "movie_title", desc.Key)
			},
		},
		{
			name: "enum",
			build: func() *field.Descriptor {
				return field.Prop("Status").Enum(Active, Suspended).Comment("account state").Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
				assert.Equal(t, []any{Active, Suspended}, desc.EnumValues)
				assert.Equal(t, "account state", desc.Comment)
			},
		},
		{
			name: "converter",
			build: func() *field.Descriptor {
				c, err := convert.Ordinal(Active, Suspended)
				if err != nil {
					panic(err)
				}
				return field.Prop("Status").Convert(c).Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
				require.NotNil(t, desc.Converter)
				v, err := desc.Converter.ToGraphValue(Suspended)
				require.NoError(t, err)
				assert.Equal(t, int64(1), v)
			},
		},
		{
			name: "empty_name",
			build: func() *field.Descriptor {
				return field.Prop("").Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
				assert.Error(t, desc.Err)
			},
		},
		{
			name: "empty_key",
			build: func() *field.Descriptor {
				return field.Prop("Name").Key("").Descriptor()
			},
			validate: func(t *testing.T, desc *field.Descriptor) {
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
