package metadata

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/schema"
)

// Policy selects how relationship classes without an explicit type derive
// their relationship type.
type Policy uint8

const (
	// InheritNearest uses the class's own type override, else the override of
	// the nearest ancestor declaring one, else the class name in upper snake
	// case.
	InheritNearest Policy = iota
	// SimpleName uses the class's own type override, else the class name in
	// upper snake case. Ancestor overrides are ignored.
	SimpleName
)

// String returns the policy name.
func (p Policy) String() string {
	if p == SimpleName {
		return "simple_name"
	}
	return "inherit_nearest"
}

// ParsePolicy parses a policy name as returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "inherit_nearest":
		return InheritNearest, nil
	case "simple_name":
		return SimpleName, nil
	}
	return 0, fmt.Errorf("metadata: unknown relationship type policy %q", s)
}

// Option configures a Registry.
type Option func(*Registry)

// WithRelationshipTypePolicy sets the relationship type policy.
func WithRelationshipTypePolicy(p Policy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// Registry describes every registered class. Classes are registered at
// startup; the first read seals the registry and later registrations fail.
// A sealed registry is safe for concurrent use.
type Registry struct {
	conv   *convert.Registry
	policy Policy

	mu        sync.RWMutex
	sealed    bool
	classes   []*ClassDescriptor
	byType    map[reflect.Type]*ClassDescriptor
	byName    map[string]*ClassDescriptor
	byLabel   map[string]*ClassDescriptor
	byRelType map[string][]*ClassDescriptor
	resolved  sync.Map // label set key -> *ClassDescriptor
}

// New returns an empty registry using conv for property conversion.
func New(conv *convert.Registry, opts ...Option) *Registry {
	if conv == nil {
		conv = convert.NewRegistry()
	}
	r := &Registry{
		conv:      conv,
		byType:    make(map[reflect.Type]*ClassDescriptor),
		byName:    make(map[string]*ClassDescriptor),
		byLabel:   make(map[string]*ClassDescriptor),
		byRelType: make(map[string][]*ClassDescriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Converters returns the conversion registry.
func (r *Registry) Converters() *convert.Registry {
	return r.conv
}

// Policy returns the relationship type policy.
func (r *Registry) Policy() Policy {
	return r.policy
}

// Register validates and adds a batch of class declarations. Either every
// class of the batch is added or none is; all problems found are reported
// together.
func (r *Registry) Register(classes ...*schema.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ogm.NewConfigurationError("", "", "registry is sealed: classes cannot be registered after the first read", nil)
	}
	b := &builder{
		reg:    r,
		byType: make(map[reflect.Type]*ClassDescriptor, len(r.byType)+len(classes)),
		decls:  make(map[*ClassDescriptor]*schema.Descriptor, len(classes)),
	}
	for t, c := range r.byType {
		b.byType[t] = c
	}
	batch := b.build(classes)
	if err := ogm.NewAggregateError(b.errs...); err != nil {
		return err
	}
	for _, c := range batch {
		r.classes = append(r.classes, c)
		r.byType[c.Type] = c
		r.byName[c.Name] = c
		if c.IsRelationship() {
			r.byRelType[c.RelType] = append(r.byRelType[c.RelType], c)
		} else {
			r.byLabel[c.PrimaryLabel()] = c
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(classes ...*schema.Class) {
	if err := r.Register(classes...); err != nil {
		panic(err)
	}
}

func (r *Registry) seal() {
	r.mu.RLock()
	sealed := r.sealed
	r.mu.RUnlock()
	if !sealed {
		r.mu.Lock()
		r.sealed = true
		r.mu.Unlock()
	}
}

// Describe returns the descriptor of the class of v, a struct value or a
// pointer to one.
func (r *Registry) Describe(v any) (*ClassDescriptor, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, ogm.NewUnknownTypeError("<nil>")
	}
	return r.DescribeType(t)
}

// DescribeType returns the descriptor of the class of struct type t.
func (r *Registry) DescribeType(t reflect.Type) (*ClassDescriptor, error) {
	r.seal()
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if c, ok := r.byType[t]; ok {
		return c, nil
	}
	return nil, ogm.NewUnknownTypeError(fmt.Sprint(t))
}

// Class returns the descriptor of the class with the given name.
func (r *Registry) Class(name string) (*ClassDescriptor, error) {
	r.seal()
	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	return nil, ogm.NewUnknownTypeError(name)
}

// Classes returns every registered class in registration order.
func (r *Registry) Classes() []*ClassDescriptor {
	r.seal()
	return slices.Clone(r.classes)
}

// ResolveLabels returns the most specific node class among the classes
// whose primary label appears in labels. Candidates not on one ancestor
// chain are ambiguous.
func (r *Registry) ResolveLabels(labels []string) (*ClassDescriptor, error) {
	r.seal()
	key := labelKey(labels)
	if c, ok := r.resolved.Load(key); ok {
		return c.(*ClassDescriptor), nil
	}
	var candidates []*ClassDescriptor
	for _, l := range labels {
		if c, ok := r.byLabel[l]; ok {
			candidates = append(candidates, c)
		}
	}
	c, err := mostSpecific(candidates)
	if err != nil {
		return nil, ogm.NewMappingFailure("node with labels "+key, err.Error(), nil)
	}
	r.resolved.Store(key, c)
	return c, nil
}

// ResolveRelationshipType returns the most-derived relationship class
// registered for typ.
func (r *Registry) ResolveRelationshipType(typ string) (*ClassDescriptor, error) {
	r.seal()
	c, err := mostSpecific(r.byRelType[typ])
	if err != nil {
		return nil, ogm.NewMappingFailure("relationship of type "+typ, err.Error(), nil)
	}
	return c, nil
}

// mostSpecific returns the deepest candidate, requiring every other
// candidate to be one of its ancestors.
func mostSpecific(candidates []*ClassDescriptor) (*ClassDescriptor, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no registered class")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.depth > best.depth {
			best = c
		}
	}
	for _, c := range candidates {
		if !best.IsA(c) {
			return nil, fmt.Errorf("ambiguous classes %s and %s", best.Name, c.Name)
		}
	}
	return best, nil
}

func labelKey(labels []string) string {
	sorted := slices.Clone(labels)
	sort.Strings(sorted)
	return strings.Join(sorted, ":")
}
