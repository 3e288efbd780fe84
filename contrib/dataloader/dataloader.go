// Package dataloader provides generic DataLoader utilities for batch
// loading mapped objects.
//
// It is designed to work with any DataLoader implementation such as
// github.com/graph-gophers/dataloader/v7 or github.com/vikstrous/dataloadgen.
//
// # Basic Usage
//
// ByID returns a batch function loading objects of one class through a
// session:
//
//	batch := dataloader.ByID[model.Actor](sess, session.Depth(1))
//	actors, errs := batch(ctx, []int64{4, 2, 9})
//
// Related groups the objects held by a relationship field per owner:
//
//	roles := dataloader.Related[model.Actor, model.Role](sess, "Roles")
//	byActor, errs := roles(ctx, []int64{4, 2})
//
// Custom batch functions reorder their results with OrderByKeys:
//
//	func movieBatchFn(ctx context.Context, titles []string) ([]*model.Movie, []error) {
//	    movies, err := session.LoadAll[model.Movie](ctx, sess, cypher.Filters{cypher.Where("Title", cypher.In, titles)})
//	    if err != nil {
//	        return nil, []error{err}
//	    }
//	    return dataloader.OrderByKeys(titles, movies, func(m *model.Movie) string { return m.Title })
//	}
package dataloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/ogm/session"
)

// ErrNotFound is returned when an entity is not found in a batch result.
var ErrNotFound = errors.New("dataloader: entity not found")

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc is a function that loads a batch of entities by their keys.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// OrderByKeys reorders entities to match the order of requested keys.
// Missing entities are represented as zero values with corresponding errors.
// The result has one element per key, in key order.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	// Build lookup map
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}

	// Build ordered result
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// CachePrimer primes a DataLoader cache with known values.
type CachePrimer[K comparable, V any] interface {
	Prime(key K, value V)
}

// Prime primes cache with objects tracked by s, keyed by graph identity,
// typically right after saving them. Objects the session does not track
// are skipped.
func Prime[T any](cache CachePrimer[int64, *T], s *session.Session, objs ...*T) {
	for _, obj := range objs {
		if id, ok := s.Context().ID(obj); ok {
			cache.Prime(id, obj)
		}
	}
}

// OrderGroupsByKeys reorders grouped entities to match the order of
// requested keys. ordered[i] holds the group of keys[i].
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

// failed reports err for every key of a batch.
func failed[V any](n int, err error) ([]V, []error) {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return make([]V, n), errs
}

// ByID returns a batch function loading objects of type T by graph
// identity through s. Every call runs one query; objects already in the
// session's mapping context keep their identity.
func ByID[T any](s *session.Session, opts ...session.LoadOption) BatchFunc[int64, *T] {
	return func(ctx context.Context, ids []int64) ([]*T, []error) {
		objs, err := session.LoadByIDs[T](ctx, s, ids, opts...)
		if err != nil {
			return failed[*T](len(ids), err)
		}
		return OrderByKeys(ids, objs, func(obj *T) int64 {
			id, _ := s.Context().ID(obj)
			return id
		})
	}
}

// Related returns a batch function loading, for every owner identity, the
// objects of type R held by the relationship field of the owner of type T.
// Owners are loaded with their direct relationships in one query. The
// group of a missing owner is nil and reported with ErrNotFound.
func Related[T, R any](s *session.Session, field string) BatchFunc[int64, []*R] {
	return func(ctx context.Context, ids []int64) ([][]*R, []error) {
		owners, err := session.LoadByIDs[T](ctx, s, ids, session.Depth(1))
		if err != nil {
			return failed[[]*R](len(ids), err)
		}
		groups := make(map[int64][]*R, len(owners))
		for _, owner := range owners {
			id, _ := s.Context().ID(owner)
			class, _ := s.Context().Class(owner)
			rd := class.Relationship(field)
			if rd == nil {
				return failed[[]*R](len(ids), fmt.Errorf("dataloader: %s has no relationship field %s", class.Name, field))
			}
			related, err := class.Related(owner, rd)
			if err != nil {
				return failed[[]*R](len(ids), err)
			}
			group := make([]*R, 0, len(related))
			for _, v := range related {
				r, ok := v.(*R)
				if !ok {
					return failed[[]*R](len(ids), fmt.Errorf("dataloader: %s.%s holds %T, not %T", class.Name, field, v, r))
				}
				group = append(group, r)
			}
			groups[id] = group
		}
		errs := make([]error, len(ids))
		for i, id := range ids {
			if _, ok := groups[id]; !ok {
				errs[i] = ErrNotFound
			}
		}
		return OrderGroupsByKeys(ids, groups), errs
	}
}
