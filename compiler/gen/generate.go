package gen

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/ogm/internal/naming"
	"github.com/syssam/ogm/metadata"
)

const ogmPkg = "github.com/syssam/ogm"

// Generator writes reflection-free ogm.Accessor implementations for the
// classes of a registry.
type Generator struct {
	cfg     *Config
	classes []*metadata.ClassDescriptor
}

// New returns a generator for every class registered in reg.
func New(reg *metadata.Registry, opts ...Option) (*Generator, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, classes: reg.Classes()}
	for _, c := range g.classes {
		if c.Type.PkgPath() != cfg.Package && !token.IsExported(c.Type.Name()) {
			return nil, NewGenerationError(c.Name, "", "unexported type outside the generated package", nil)
		}
	}
	return g, nil
}

// AccessorName returns the name of the generated accessor type of class c.
func AccessorName(c *metadata.ClassDescriptor) string {
	return c.Type.Name() + "Accessor"
}

// FileName returns the name of the file generated for class c.
func FileName(c *metadata.ClassDescriptor) string {
	return strings.ToLower(naming.UpperSnake(c.Type.Name())) + "_accessor.go"
}

// Generate writes one file per class and an index file to the target
// directory. Files are rendered concurrently.
func (g *Generator) Generate(ctx context.Context) error {
	if g.cfg.Target == "" {
		return NewConfigError("Target", nil, "missing target directory")
	}
	if err := os.MkdirAll(g.cfg.Target, 0o755); err != nil {
		return NewGenerationError("", g.cfg.Target, "create target directory", err)
	}
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.cfg.Workers)
	for _, c := range g.classes {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := g.accessorFile(c)
			if err != nil {
				return err
			}
			return g.writeFile(f, c.Name, FileName(c))
		})
	}
	errg.Go(func() error {
		return g.writeFile(g.indexFile(), "", "accessors.go")
	})
	return errg.Wait()
}

// Render returns the source of the accessor file of class c.
func (g *Generator) Render(c *metadata.ClassDescriptor) ([]byte, error) {
	f, err := g.accessorFile(c)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError(c.Name, FileName(c), "render", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeFile(f *jen.File, class, name string) error {
	path := filepath.Join(g.cfg.Target, name)
	out, err := os.Create(path)
	if err != nil {
		return NewGenerationError(class, name, "create file", err)
	}
	if err := f.Render(out); err != nil {
		out.Close()
		return NewGenerationError(class, name, "render", err)
	}
	if err := out.Close(); err != nil {
		return NewGenerationError(class, name, "close file", err)
	}
	return nil
}

func (g *Generator) newFile() *jen.File {
	f := jen.NewFilePathName(g.cfg.Package, g.cfg.Name)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	return f
}

// indexFile declares Accessors, returning every generated accessor by
// class name.
func (g *Generator) indexFile() *jen.File {
	f := g.newFile()
	f.Comment("Accessors returns the generated accessor of every class, keyed by class name.")
	f.Func().Id("Accessors").Params().Map(jen.String()).Qual(ogmPkg, "Accessor").Block(
		jen.Return(jen.Map(jen.String()).Qual(ogmPkg, "Accessor").Values(jen.DictFunc(func(d jen.Dict) {
			for _, c := range g.classes {
				d[jen.Lit(c.Name)] = jen.Id(AccessorName(c)).Values()
			}
		}))),
	)
	return f
}

type member struct {
	name string
	typ  reflect.Type
}

// relMember is a relationship or endpoint field.
type relMember struct {
	member
	collection bool
}

func (g *Generator) accessorFile(c *metadata.ClassDescriptor) (*jen.File, error) {
	props := []member{{name: c.IDField, typ: reflect.TypeFor[*int64]()}}
	for _, pd := range c.Properties {
		props = append(props, member{name: pd.Field, typ: pd.Type})
	}
	var rels []relMember
	for _, rd := range c.Relationships {
		rels = append(rels, relMember{member{rd.Field, rd.FieldType}, rd.Collection})
	}
	for _, ed := range []*metadata.EndpointDescriptor{c.Start, c.End} {
		if ed != nil {
			rels = append(rels, relMember{member: member{ed.Field, ed.FieldType}})
		}
	}

	name := AccessorName(c)
	self := g.typeCode(c.Type)
	f := g.newFile()
	f.Commentf("%s reads and writes %s objects without reflection.", name, c.Type.Name())
	f.Type().Id(name).Struct()

	f.Comment("New implements ogm.Accessor.")
	f.Func().Params(jen.Id(name)).Id("New").Params().Id("any").Block(
		jen.Return(jen.New(self)),
	)

	// obj is converted once at the top of every method. Methods without
	// cases discard the result.
	cast := func(used bool, zero ...jen.Code) jen.Code {
		ret := append(zero, jen.Qual("fmt", "Errorf").Call(jen.Lit(name+": expected *"+c.Type.Name()+", got %T"), jen.Id("obj")))
		o := jen.Id("o")
		if !used {
			o = jen.Id("_")
		}
		return jen.List(o, jen.Id("ok")).Op(":=").Id("obj").Assert(jen.Op("*").Add(self)).Line().
			If(jen.Op("!").Id("ok")).Block(jen.Return(ret...))
	}
	unknown := func(kind string, zero ...jen.Code) jen.Code {
		return jen.Return(append(zero, jen.Qual("fmt", "Errorf").Call(jen.Lit(name+": unknown "+kind+" %q"), jen.Id("name")))...)
	}
	mismatch := func(field string) jen.Code {
		return jen.Qual("fmt", "Errorf").Call(jen.Lit(name+": cannot assign %T to "+field), jen.Id("value"))
	}

	var get, set []jen.Code
	for _, m := range props {
		t, err := g.checkedType(c, m)
		if err != nil {
			return nil, err
		}
		get = append(get, jen.Case(jen.Lit(m.name)).Block(jen.Return(jen.Id("o").Dot(m.name), jen.Nil())))
		set = append(set, jen.Case(jen.Lit(m.name)).Block(
			jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("value").Assert(t),
			jen.If(jen.Op("!").Id("ok").Op("&&").Id("value").Op("!=").Nil()).Block(jen.Return(mismatch(m.name))),
			jen.Id("o").Dot(m.name).Op("=").Id("v"),
			jen.Return(jen.Nil()),
		))
	}
	f.Comment("Property implements ogm.Accessor.")
	f.Func().Params(jen.Id(name)).Id("Property").Params(jen.Id("obj").Id("any"), jen.Id("name").String()).Params(jen.Id("any"), jen.Error()).Block(
		cast(true, jen.Nil()),
		jen.Switch(jen.Id("name")).Block(get...),
		unknown("property", jen.Nil()),
	)
	f.Comment("SetProperty implements ogm.Accessor.")
	f.Func().Params(jen.Id(name)).Id("SetProperty").Params(jen.Id("obj").Id("any"), jen.Id("name").String(), jen.Id("value").Id("any")).Error().Block(
		cast(true),
		jen.Switch(jen.Id("name")).Block(set...),
		unknown("property"),
	)

	var related, setRelated []jen.Code
	for _, m := range rels {
		t, err := g.checkedType(c, m.member)
		if err != nil {
			return nil, err
		}
		field := jen.Id("o").Dot(m.name)
		if m.collection {
			if m.typ.Kind() != reflect.Slice {
				return nil, NewGenerationError(c.Name, FileName(c), "collection field "+m.name+" must be a slice", nil)
			}
			elem := g.typeCode(m.typ.Elem())
			related = append(related, jen.Case(jen.Lit(m.name)).Block(
				jen.Id("out").Op(":=").Make(jen.Index().Id("any"), jen.Lit(0), jen.Len(field.Clone())),
				jen.For(jen.List(jen.Id("_"), jen.Id("v")).Op(":=").Range().Add(field.Clone())).Block(
					jen.If(jen.Id("v").Op("!=").Nil()).Block(jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id("v"))),
				),
				jen.Return(jen.Id("out"), jen.Nil()),
			))
			setRelated = append(setRelated, jen.Case(jen.Lit(m.name)).Block(
				jen.Id("s").Op(":=").Make(t, jen.Len(jen.Id("values"))),
				jen.For(jen.List(jen.Id("i"), jen.Id("value")).Op(":=").Range().Id("values")).Block(
					jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("value").Assert(elem),
					jen.If(jen.Op("!").Id("ok")).Block(jen.Return(mismatch(m.name))),
					jen.Id("s").Index(jen.Id("i")).Op("=").Id("v"),
				),
				field.Clone().Op("=").Id("s"),
				jen.Return(jen.Nil()),
			))
			continue
		}
		related = append(related, jen.Case(jen.Lit(m.name)).Block(
			jen.If(field.Clone().Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Nil())),
			jen.Return(jen.Index().Id("any").Values(field.Clone()), jen.Nil()),
		))
		setRelated = append(setRelated, jen.Case(jen.Lit(m.name)).Block(
			jen.If(jen.Len(jen.Id("values")).Op("==").Lit(0).Op("||").Id("values").Index(jen.Lit(0)).Op("==").Nil()).Block(
				field.Clone().Op("=").Nil(),
				jen.Return(jen.Nil()),
			),
			jen.Id("value").Op(":=").Id("values").Index(jen.Lit(0)),
			jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("value").Assert(t),
			jen.If(jen.Op("!").Id("ok")).Block(jen.Return(mismatch(m.name))),
			field.Clone().Op("=").Id("v"),
			jen.Return(jen.Nil()),
		))
	}
	f.Comment("Related implements ogm.Accessor.")
	f.Func().Params(jen.Id(name)).Id("Related").Params(jen.Id("obj").Id("any"), jen.Id("name").String()).Params(jen.Index().Id("any"), jen.Error()).Block(
		cast(len(related) > 0, jen.Nil()),
		jen.Switch(jen.Id("name")).Block(related...),
		unknown("relationship", jen.Nil()),
	)
	f.Comment("SetRelated implements ogm.Accessor.")
	f.Func().Params(jen.Id(name)).Id("SetRelated").Params(jen.Id("obj").Id("any"), jen.Id("name").String(), jen.Id("values").Index().Id("any")).Error().Block(
		cast(len(setRelated) > 0),
		jen.Switch(jen.Id("name")).Block(setRelated...),
		unknown("relationship"),
	)

	f.Var().Id("_").Qual(ogmPkg, "Accessor").Op("=").Id(name).Values()
	return f, nil
}

func (g *Generator) checkedType(c *metadata.ClassDescriptor, m member) (*jen.Statement, error) {
	if m.typ == nil {
		return nil, NewGenerationError(c.Name, FileName(c), fmt.Sprintf("no type recorded for field %s", m.name), nil)
	}
	if err := g.expressible(m.typ); err != nil {
		return nil, NewGenerationError(c.Name, FileName(c), "field "+m.name, err)
	}
	return g.typeCode(m.typ), nil
}

// expressible reports whether t can be spelled in the generated package.
func (g *Generator) expressible(t reflect.Type) error {
	if t.Name() != "" {
		if strings.Contains(t.Name(), "[") {
			return fmt.Errorf("generic type %s is not supported", t)
		}
		if t.PkgPath() != "" && t.PkgPath() != g.cfg.Package && !token.IsExported(t.Name()) {
			return fmt.Errorf("type %s is not exported", t)
		}
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return g.expressible(t.Elem())
	case reflect.Map:
		if err := g.expressible(t.Key()); err != nil {
			return err
		}
		return g.expressible(t.Elem())
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return nil
		}
	}
	return fmt.Errorf("unnamed type %s is not supported", t)
}

// typeCode spells t, which must be expressible.
func (g *Generator) typeCode(t reflect.Type) *jen.Statement {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return jen.Id(t.Name())
		}
		return jen.Qual(t.PkgPath(), t.Name())
	}
	switch t.Kind() {
	case reflect.Pointer:
		return jen.Op("*").Add(g.typeCode(t.Elem()))
	case reflect.Slice:
		return jen.Index().Add(g.typeCode(t.Elem()))
	case reflect.Array:
		return jen.Index(jen.Lit(t.Len())).Add(g.typeCode(t.Elem()))
	case reflect.Map:
		return jen.Map(g.typeCode(t.Key())).Add(g.typeCode(t.Elem()))
	}
	return jen.Id("any")
}
