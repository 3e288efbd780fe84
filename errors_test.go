package ogm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		assert.Equal(t, "ogm: Actor not found", ogm.NewNotFoundError("Actor").Error())
		assert.Equal(t, "ogm: Actor not found (id=42)", ogm.NewNotFoundErrorWithID("Actor", int64(42)).Error())
	})

	t.Run("Accessors", func(t *testing.T) {
		err := ogm.NewNotFoundErrorWithID("Movie", int64(7))
		assert.Equal(t, "Movie", err.Label())
		assert.Equal(t, int64(7), err.ID())
		assert.Nil(t, ogm.NewNotFoundError("Movie").ID())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := ogm.NewNotFoundError("Role")
		assert.True(t, errors.Is(err, ogm.ErrNotFound))
		assert.True(t, ogm.IsNotFound(err))
		assert.True(t, ogm.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, ogm.IsNotFound(ogm.ErrNotFound))
		assert.False(t, ogm.IsNotFound(errors.New("other error")))
		assert.False(t, ogm.IsNotFound(nil))
	})
}

func TestConfigurationError(t *testing.T) {
	cause := errors.New("no such field")
	tests := []struct {
		name string
		err  *ogm.ConfigurationError
		want string
	}{
		{
			name: "message only",
			err:  ogm.NewConfigurationError("", "", "empty registry", nil),
			want: "ogm: configuration error: empty registry",
		},
		{
			name: "class",
			err:  ogm.NewConfigurationError("Actor", "", "duplicate class name", nil),
			want: "ogm: configuration error on class Actor: duplicate class name",
		},
		{
			name: "member and cause",
			err:  ogm.NewConfigurationError("Actor", "Name", "bad field", cause),
			want: "ogm: configuration error on class Actor member Name: bad field: no such field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, ogm.ErrConfiguration)
			assert.True(t, ogm.IsConfigurationError(fmt.Errorf("register: %w", tt.err)))
		})
	}
	assert.ErrorIs(t, ogm.NewConfigurationError("Actor", "Name", "bad field", cause), cause)
	assert.False(t, ogm.IsConfigurationError(nil))
}

func TestTypedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		is       func(error) bool
		want     string
	}{
		{
			name:     "unknown type",
			err:      ogm.NewUnknownTypeError("model.Planet"),
			sentinel: ogm.ErrUnknownType,
			is:       ogm.IsUnknownType,
			want:     "ogm: type model.Planet is not registered",
		},
		{
			name:     "unsupported property type",
			err:      ogm.NewUnsupportedPropertyTypeError("Actor", "Home", "chan int"),
			sentinel: ogm.ErrUnsupportedPropertyType,
			is:       ogm.IsUnsupportedPropertyType,
			want:     "ogm: no converter for property Actor.Home of type chan int",
		},
		{
			name:     "unsupported type without class",
			err:      ogm.NewUnsupportedPropertyTypeError("", "", "func()"),
			sentinel: ogm.ErrUnsupportedPropertyType,
			is:       ogm.IsUnsupportedPropertyType,
			want:     "ogm: no converter for type func()",
		},
		{
			name:     "identity conflict",
			err:      ogm.NewIdentityConflictError(3, "*model.Actor", "*model.Actor"),
			sentinel: ogm.ErrIdentityConflict,
			is:       ogm.IsIdentityConflict,
			want:     "ogm: graph identity 3 already held by another *model.Actor (incoming *model.Actor)",
		},
		{
			name:     "mapping failure",
			err:      ogm.NewMappingFailure("relationship 7", "end node 9 missing from result", nil),
			sentinel: ogm.ErrMappingFailure,
			is:       ogm.IsMappingFailure,
			want:     "ogm: cannot map relationship 7: end node 9 missing from result",
		},
		{
			name:     "conversion",
			err:      ogm.NewConversionError("Individual", "Mood", "SLEEPY", errors.New("unknown name")),
			sentinel: ogm.ErrConversion,
			is:       ogm.IsConversionError,
			want:     `ogm: cannot convert Individual.Mood value "SLEEPY": unknown name`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.err)))
			assert.True(t, tt.is(tt.sentinel))
			assert.False(t, tt.is(errors.New("other")))
			assert.False(t, tt.is(nil))
		})
	}
}

func TestDriverErrors(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("QueryError", func(t *testing.T) {
		err := ogm.NewQueryError("Actor", "load", cause)
		assert.Equal(t, "ogm: querying Actor (load): connection reset", err.Error())
		assert.Equal(t, "ogm: querying Actor: connection reset", ogm.NewQueryError("Actor", "", cause).Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, ogm.IsQueryError(fmt.Errorf("x: %w", err)))
		assert.False(t, ogm.IsQueryError(cause))
	})

	t.Run("MutationError", func(t *testing.T) {
		err := ogm.NewMutationError("Actor", "save", cause)
		assert.Equal(t, "ogm: save Actor: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, ogm.IsMutationError(err))
		assert.False(t, ogm.IsMutationError(nil))
	})
}

func TestAggregateError(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.NoError(t, ogm.NewAggregateError())
		assert.NoError(t, ogm.NewAggregateError(nil, nil))
	})

	t.Run("Single", func(t *testing.T) {
		err := errors.New("single")
		assert.Same(t, err, ogm.NewAggregateError(nil, err))
	})

	t.Run("Multiple", func(t *testing.T) {
		first := ogm.NewConfigurationError("Actor", "", "no identity field declared", nil)
		second := ogm.NewUnsupportedPropertyTypeError("Movie", "Poster", "chan int")
		err := ogm.NewAggregateError(first, nil, second)

		var agg *ogm.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Len(t, agg.Errors, 2)
		assert.Contains(t, err.Error(), "ogm: multiple errors:")
		assert.Contains(t, err.Error(), "[2] ogm: no converter for property Movie.Poster")
		assert.ErrorIs(t, err, ogm.ErrConfiguration)
		assert.ErrorIs(t, err, ogm.ErrUnsupportedPropertyType)
	})
}

func BenchmarkErrors(b *testing.B) {
	b.Run("NewNotFoundError", func(b *testing.B) {
		for b.Loop() {
			_ = ogm.NewNotFoundErrorWithID("Actor", int64(1))
		}
	})

	b.Run("IsNotFound", func(b *testing.B) {
		err := fmt.Errorf("wrapped: %w", ogm.NewNotFoundError("Actor"))
		for b.Loop() {
			_ = ogm.IsNotFound(err)
		}
	})
}
