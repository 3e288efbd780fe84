package dataloader

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/dialect/memory"
	"github.com/syssam/ogm/metadata"
	"github.com/syssam/ogm/schema"
	"github.com/syssam/ogm/schema/edge"
	"github.com/syssam/ogm/schema/field"
	"github.com/syssam/ogm/session"
)

type (
	Movie struct {
		ID    *int64
		Title string
		Year  int
	}
	Studio struct {
		ID     *int64
		Name   string
		Movies []*Movie
	}
)

func registry(t *testing.T) *metadata.Registry {
	t.Helper()
	reg := metadata.New(convert.NewRegistry())
	require.NoError(t, reg.Register(
		schema.Node(Movie{}).ID("ID").Fields(field.Prop("Title"), field.Prop("Year")),
		schema.Node(Studio{}).ID("ID").Fields(field.Prop("Name")).Edges(edge.To("Movies", Movie{}).Type("PRODUCED")),
	))
	return reg
}

func title(m *Movie) string { return m.Title }

func TestOrderByKeys(t *testing.T) {
	t.Parallel()
	matrix := &Movie{Title: "The Matrix"}
	speed := &Movie{Title: "Speed"}

	tests := []struct {
		name    string
		keys    []string
		values  []*Movie
		want    []*Movie
		missing []int
	}{
		{
			name:   "reordered",
			keys:   []string{"Speed", "The Matrix"},
			values: []*Movie{matrix, speed},
			want:   []*Movie{speed, matrix},
		},
		{
			name:    "missing",
			keys:    []string{"The Matrix", "Point Break", "Speed"},
			values:  []*Movie{speed, matrix},
			want:    []*Movie{matrix, nil, speed},
			missing: []int{1},
		},
		{
			name:   "duplicate keys",
			keys:   []string{"Speed", "Speed"},
			values: []*Movie{speed},
			want:   []*Movie{speed, speed},
		},
		{
			name: "empty",
			want: []*Movie{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, errs := OrderByKeys(tt.keys, tt.values, title)
			assert.Equal(t, tt.want, got)
			require.Len(t, errs, len(tt.keys))
			for i, err := range errs {
				if slices.Contains(tt.missing, i) {
					assert.ErrorIs(t, err, ErrNotFound)
				} else {
					assert.NoError(t, err)
				}
			}
		})
	}
}

func TestOrderGroupsByKeys(t *testing.T) {
	t.Parallel()
	matrix := &Movie{Title: "The Matrix", Year: 1999}
	existenz := &Movie{Title: "eXistenZ", Year: 1999}
	reloaded := &Movie{Title: "The Matrix Reloaded", Year: 2003}
	groups := map[int][]*Movie{1999: {matrix, existenz}, 2003: {reloaded}}

	ordered := OrderGroupsByKeys([]int{2003, 2020, 1999}, groups)
	require.Len(t, ordered, 3)
	assert.Equal(t, []*Movie{reloaded}, ordered[0])
	assert.Nil(t, ordered[1])
	assert.Equal(t, []*Movie{matrix, existenz}, ordered[2])
}

type cache map[int64]*Movie

func (c cache) Prime(key int64, value *Movie) { c[key] = value }

func TestPrime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := session.New(registry(t), memory.New())
	speed := &Movie{Title: "Speed"}
	require.NoError(t, s.Save(ctx, speed, ogm.Unbounded))

	c := cache{}
	Prime[Movie](c, s, speed, &Movie{Title: "unsaved"})
	assert.Equal(t, cache{*speed.ID: speed}, c)
}

func TestByID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := registry(t)
	drv := memory.New()
	s := session.New(reg, drv)

	matrix := &Movie{Title: "The Matrix", Year: 1999}
	speed := &Movie{Title: "Speed", Year: 1994}
	require.NoError(t, s.Save(ctx, matrix, ogm.Unbounded))
	require.NoError(t, s.Save(ctx, speed, ogm.Unbounded))

	stats := dialect.NewStatsDriver(drv)
	fresh := session.New(reg, stats)
	batch := ByID[Movie](fresh)
	got, errs := batch(ctx, []int64{*speed.ID, 9999, *matrix.ID})
	require.Len(t, got, 3)
	assert.Equal(t, "Speed", got[0].Title)
	assert.Nil(t, got[1])
	assert.Equal(t, "The Matrix", got[2].Title)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], ErrNotFound)
	assert.Equal(t, int64(1), stats.QueryStats().Stats().Statements)

	again, _ := batch(ctx, []int64{*matrix.ID})
	assert.Same(t, got[2], again[0])

	// A driver failure is reported for every key.
	failing := memory.New(memory.WithHook(func(context.Context, cypher.Statement) error { return errors.New("unavailable") }))
	_, errs = ByID[Movie](session.New(reg, failing))(ctx, []int64{1, 2})
	require.Len(t, errs, 2)
	assert.True(t, ogm.IsQueryError(errs[0]))
	assert.True(t, ogm.IsQueryError(errs[1]))
}

func TestRelated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := registry(t)
	drv := memory.New()

	matrix := &Movie{Title: "The Matrix", Year: 1999}
	speed := &Movie{Title: "Speed", Year: 1994}
	warner := &Studio{Name: "Warner", Movies: []*Movie{matrix}}
	fox := &Studio{Name: "Fox", Movies: []*Movie{speed, matrix}}
	empty := &Studio{Name: "Empty"}
	s := session.New(reg, drv)
	for _, studio := range []*Studio{warner, fox, empty} {
		require.NoError(t, s.Save(ctx, studio, ogm.Unbounded))
	}

	stats := dialect.NewStatsDriver(drv)
	fresh := session.New(reg, stats)
	got, errs := Related[Studio, Movie](fresh, "Movies")(ctx, []int64{*fox.ID, 9999, *warner.ID, *empty.ID})
	require.Len(t, got, 4)
	assert.Equal(t, int64(1), stats.QueryStats().Stats().Statements)
	assert.ElementsMatch(t, []string{"Speed", "The Matrix"}, []string{got[0][0].Title, got[0][1].Title})
	assert.Nil(t, got[1])
	assert.ErrorIs(t, errs[1], ErrNotFound)
	require.Len(t, got[2], 1)
	i := slices.IndexFunc(got[0], func(m *Movie) bool { return m.Title == "The Matrix" })
	require.NotEqual(t, -1, i)
	assert.Same(t, got[2][0], got[0][i], "shared objects keep one identity")
	assert.Empty(t, got[3])
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[3])

	_, errs = Related[Studio, Movie](fresh, "Actors")(ctx, []int64{*fox.ID})
	assert.ErrorContains(t, errs[0], "no relationship field Actors")
	_, errs = Related[Studio, Studio](fresh, "Movies")(ctx, []int64{*fox.ID})
	assert.Error(t, errs[0])
}

func BenchmarkOrderByKeys(b *testing.B) {
	keys := make([]int, 1000)
	values := make([]*Movie, 1000)
	for i := range keys {
		keys[i] = i
		values[len(values)-1-i] = &Movie{Year: i}
	}
	year := func(m *Movie) int { return m.Year }
	for b.Loop() {
		OrderByKeys(keys, values, year)
	}
}
