package metadata

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/internal/naming"
	"github.com/syssam/ogm/schema"
	"github.com/syssam/ogm/schema/field"
)

var idType = reflect.TypeOf((*int64)(nil))

// builder turns one batch of declarations into class descriptors.
type builder struct {
	reg    *Registry
	byType map[reflect.Type]*ClassDescriptor
	decls  map[*ClassDescriptor]*schema.Descriptor
	errs   []error
}

func (b *builder) fail(class, member, format string, args ...any) {
	b.errs = append(b.errs, ogm.NewConfigurationError(class, member, fmt.Sprintf(format, args...), nil))
}

func (b *builder) build(classes []*schema.Class) []*ClassDescriptor {
	var batch []*ClassDescriptor
	for _, sc := range classes {
		d := sc.Descriptor()
		if d.Err != nil {
			b.errs = append(b.errs, ogm.NewConfigurationError(d.Name, "", "invalid declaration", d.Err))
			continue
		}
		if prev, ok := b.byType[d.Type]; ok {
			b.fail(d.Name, "", "type %s is already registered as class %s", d.Type, prev.Name)
			continue
		}
		c := &ClassDescriptor{
			Name:        d.Name,
			Kind:        d.Kind,
			Type:        d.Type,
			Accessor:    d.Accessor,
			Annotations: d.Annotations,
		}
		if c.Accessor == nil {
			c.Accessor = newReflectAccessor(d.Type)
		}
		b.byType[d.Type] = c
		b.decls[c] = d
		batch = append(batch, c)
	}
	for _, c := range batch {
		d := b.decls[c]
		if d.Parent == nil {
			continue
		}
		p, ok := b.byType[d.Parent]
		switch {
		case !ok:
			b.fail(c.Name, "", "extends unregistered type %s", d.Parent)
		case p.Kind != c.Kind:
			b.fail(c.Name, "", "%s class cannot extend %s class %s", c.Kind, p.Kind, p.Name)
		default:
			c.Parent = p
		}
	}
	for _, c := range batch {
		seen := map[*ClassDescriptor]bool{c: true}
		for p := c.Parent; p != nil; p = p.Parent {
			if seen[p] {
				b.fail(c.Name, "", "cyclic class hierarchy")
				c.Parent = nil
				break
			}
			seen[p] = true
			c.depth++
		}
	}
	if len(b.errs) > 0 {
		return nil
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].depth < batch[j].depth
	})
	for _, c := range batch {
		if c.IsRelationship() {
			c.RelType = b.relType(c)
		}
	}
	for _, c := range batch {
		b.fill(c)
	}
	b.validate(batch)
	return batch
}

// explicitType returns the type override declared by c itself.
func (b *builder) explicitType(c *ClassDescriptor) string {
	if d, ok := b.decls[c]; ok {
		return d.RelType
	}
	return c.explicitType
}

func (b *builder) relType(c *ClassDescriptor) string {
	if t := b.explicitType(c); t != "" {
		c.explicitType = t
		return t
	}
	if b.reg.policy == InheritNearest {
		for p := c.Parent; p != nil; p = p.Parent {
			if t := b.explicitType(p); t != "" {
				return t
			}
		}
	}
	return naming.UpperSnake(c.Name)
}

func (b *builder) fill(c *ClassDescriptor) {
	d, p := b.decls[c], c.Parent

	if !c.IsRelationship() {
		own := append([]string(nil), d.Labels...)
		if len(own) == 0 {
			own = []string{c.Name}
		} else if own[0] == "" {
			own[0] = c.Name
		}
		for _, l := range own {
			if l == "" {
				b.fail(c.Name, "", "empty label")
			}
		}
		c.Labels = appendLabels(nil, own...)
		if p != nil {
			c.Labels = appendLabels(c.Labels, p.Labels...)
		}
	} else if len(d.Labels) > 0 {
		b.fail(c.Name, "", "relationship classes have no labels")
	}

	c.IDField = d.IDField
	if c.IDField == "" && p != nil {
		c.IDField = p.IDField
	}
	if c.IDField == "" {
		b.fail(c.Name, "", "no identity field declared")
	} else if sf, ok := b.structField(c, c.IDField); ok && sf.Type != idType {
		b.fail(c.Name, c.IDField, "identity field must be *int64, got %s", sf.Type)
	}

	b.properties(c, d, p)
	b.relationships(c, d, p)
	if c.IsRelationship() {
		b.endpoints(c, d, p)
	}
	c.index()
}

func (b *builder) properties(c *ClassDescriptor, d *schema.Descriptor, p *ClassDescriptor) {
	if p != nil {
		for _, pd := range p.Properties {
			if sf, ok := b.structField(c, pd.Field); ok && sf.Type != pd.Type {
				b.fail(c.Name, pd.Field, "inherited property has type %s, want %s", sf.Type, pd.Type)
			}
			c.Properties = append(c.Properties, pd)
		}
	}
	own := make(map[string]bool, len(d.Fields))
	for _, fd := range d.Fields {
		if fd.Err != nil {
			b.errs = append(b.errs, ogm.NewConfigurationError(c.Name, fd.Name, "invalid property", fd.Err))
			continue
		}
		if own[fd.Key] {
			b.fail(c.Name, fd.Name, "duplicate property key %q", fd.Key)
			continue
		}
		own[fd.Key] = true
		if fd.Name == c.IDField {
			b.fail(c.Name, fd.Name, "identity field cannot be a property")
			continue
		}
		sf, ok := b.structField(c, fd.Name)
		if !ok {
			continue
		}
		conv, err := b.converter(c, fd, sf.Type)
		if err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		pd := &PropertyDescriptor{
			Field:     fd.Name,
			Key:       fd.Key,
			Type:      sf.Type,
			Converter: conv,
			Comment:   fd.Comment,
		}
		replaced := false
		for i, inherited := range c.Properties {
			if inherited.Key == pd.Key {
				c.Properties[i], replaced = pd, true
				break
			}
		}
		if !replaced {
			c.Properties = append(c.Properties, pd)
		}
	}
}

func (b *builder) converter(c *ClassDescriptor, fd *field.Descriptor, typ reflect.Type) (convert.Converter, error) {
	conv := b.reg.conv
	var base convert.Converter
	switch {
	case fd.Converter != nil:
		typed, ok := fd.Converter.(interface{ Type() reflect.Type })
		if !ok || typed.Type() == typ {
			return fd.Converter, nil
		}
		base = fd.Converter
	case len(fd.EnumValues) > 0:
		ec, err := convert.Enum(fd.EnumValues...)
		if err != nil {
			return nil, ogm.NewConfigurationError(c.Name, fd.Name, "invalid enumeration", err)
		}
		if ec.Type() == typ {
			return ec, nil
		}
		base = ec
	default:
		out, err := conv.For(typ)
		if err != nil {
			return nil, ogm.NewUnsupportedPropertyTypeError(c.Name, fd.Name, typ.String())
		}
		return out, nil
	}
	bt := base.(interface{ Type() reflect.Type }).Type()
	if !contains(typ, bt) {
		return nil, ogm.NewConfigurationError(c.Name, fd.Name, fmt.Sprintf("converter for %s does not apply to field type %s", bt, typ), nil)
	}
	out, err := conv.Derive(typ, bt, base)
	if err != nil {
		return nil, ogm.NewUnsupportedPropertyTypeError(c.Name, fd.Name, typ.String())
	}
	return out, nil
}

// contains reports whether base is typ or the element type of pointer and
// sequence layers around typ.
func contains(typ, base reflect.Type) bool {
	for {
		if typ == base {
			return true
		}
		switch typ.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			typ = typ.Elem()
		default:
			return false
		}
	}
}

func (b *builder) relationships(c *ClassDescriptor, d *schema.Descriptor, p *ClassDescriptor) {
	if c.IsRelationship() {
		if len(d.Edges) > 0 {
			b.fail(c.Name, "", "relationship classes cannot declare relationships")
		}
		return
	}
	if p != nil {
		for _, rd := range p.Relationships {
			if sf, ok := b.structField(c, rd.Field); ok && sf.Type != rd.FieldType {
				b.fail(c.Name, rd.Field, "inherited relationship has type %s, want %s", sf.Type, rd.FieldType)
			}
			c.Relationships = append(c.Relationships, rd)
		}
	}
	for _, ed := range d.Edges {
		if ed.Err != nil {
			b.errs = append(b.errs, ogm.NewConfigurationError(c.Name, ed.Name, "invalid relationship", ed.Err))
			continue
		}
		if b.hasRelationship(c, ed.Name) {
			b.fail(c.Name, ed.Name, "duplicate relationship field")
			continue
		}
		if c.hasPropertyField(ed.Name) || ed.Name == c.IDField {
			b.fail(c.Name, ed.Name, "field is already mapped as a property")
			continue
		}
		target, ok := b.byType[ed.Target]
		if !ok {
			b.fail(c.Name, ed.Name, "target type %s is not registered", ed.Target)
			continue
		}
		sf, ok := b.structField(c, ed.Name)
		if !ok {
			continue
		}
		collection, elem, ok := relationshipShape(sf.Type)
		if !ok {
			b.fail(c.Name, ed.Name, "relationship field must be a pointer, interface or slice of them, got %s", sf.Type)
			continue
		}
		if !reflect.PointerTo(target.Type).AssignableTo(elem) {
			b.fail(c.Name, ed.Name, "field element type %s cannot hold *%s", elem, target.Type.Name())
			continue
		}
		typ := ed.Type
		if target.IsRelationship() {
			if typ != "" && typ != target.RelType {
				b.fail(c.Name, ed.Name, "relationship type %q conflicts with type %q of class %s", typ, target.RelType, target.Name)
				continue
			}
			typ = target.RelType
		} else if typ == "" {
			typ = naming.UpperSnake(ed.Name)
		}
		c.Relationships = append(c.Relationships, &RelationshipDescriptor{
			Field:      ed.Name,
			Type:       typ,
			Direction:  ed.Direction,
			Target:     target,
			Collection: collection,
			FieldType:  sf.Type,
			Comment:    ed.Comment,
		})
	}
}

func (b *builder) hasRelationship(c *ClassDescriptor, name string) bool {
	for _, rd := range c.Relationships {
		if rd.Field == name {
			return true
		}
	}
	return false
}

func (c *ClassDescriptor) hasPropertyField(name string) bool {
	for _, pd := range c.Properties {
		if pd.Field == name {
			return true
		}
	}
	return false
}

func (b *builder) endpoints(c *ClassDescriptor, d *schema.Descriptor, p *ClassDescriptor) {
	resolve := func(name, inherited string, role string) *EndpointDescriptor {
		if name == "" {
			name = inherited
		}
		if name == "" {
			b.fail(c.Name, "", "no %s field declared", role)
			return nil
		}
		sf, ok := b.structField(c, name)
		if !ok {
			return nil
		}
		collection, elem, ok := relationshipShape(sf.Type)
		if !ok || collection {
			b.fail(c.Name, name, "%s field must be a pointer or interface, got %s", role, sf.Type)
			return nil
		}
		ed := &EndpointDescriptor{Field: name, FieldType: sf.Type}
		if elem.Kind() == reflect.Pointer {
			target, ok := b.byType[elem.Elem()]
			if !ok || target.IsRelationship() {
				b.fail(c.Name, name, "%s type %s is not a registered node class", role, elem.Elem())
				return nil
			}
			ed.Target = target
		}
		return ed
	}
	var startField, endField string
	if p != nil {
		startField, endField = p.Start.Field, p.End.Field
	}
	c.Start = resolve(d.StartField, startField, "start")
	c.End = resolve(d.EndField, endField, "end")
}

// relationshipShape splits a relationship field type into its element type
// and whether it holds a collection.
func relationshipShape(t reflect.Type) (collection bool, elem reflect.Type, ok bool) {
	if t.Kind() == reflect.Slice {
		collection, t = true, t.Elem()
	}
	switch {
	case t.Kind() == reflect.Interface:
		return collection, t, true
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return collection, t, true
	}
	return false, nil, false
}

func (b *builder) structField(c *ClassDescriptor, name string) (reflect.StructField, bool) {
	sf, ok := c.Type.FieldByName(name)
	if !ok || !sf.IsExported() {
		b.fail(c.Name, name, "struct %s has no exported field %s", c.Type, name)
		return reflect.StructField{}, false
	}
	return sf, true
}

// validate checks constraints spanning classes: unique primary labels and
// relationship types resolving to one hierarchy.
func (b *builder) validate(batch []*ClassDescriptor) {
	labels := make(map[string]*ClassDescriptor, len(b.reg.byLabel))
	for l, c := range b.reg.byLabel {
		labels[l] = c
	}
	types := make(map[string][]*ClassDescriptor, len(b.reg.byRelType))
	for t, cs := range b.reg.byRelType {
		types[t] = append([]*ClassDescriptor(nil), cs...)
	}
	names := make(map[string]bool, len(b.reg.byName))
	for n := range b.reg.byName {
		names[n] = true
	}
	for _, c := range batch {
		if names[c.Name] {
			b.fail(c.Name, "", "duplicate class name")
		}
		names[c.Name] = true
		if c.IsRelationship() {
			types[c.RelType] = append(types[c.RelType], c)
			continue
		}
		if prev, ok := labels[c.PrimaryLabel()]; ok {
			b.fail(c.Name, "", "primary label %q is already claimed by class %s", c.PrimaryLabel(), prev.Name)
			continue
		}
		labels[c.PrimaryLabel()] = c
	}
	for _, c := range batch {
		if !c.IsRelationship() {
			continue
		}
		if _, err := mostSpecific(types[c.RelType]); err != nil {
			b.fail(c.Name, "", "relationship type %q: %v", c.RelType, err)
		}
	}
}
