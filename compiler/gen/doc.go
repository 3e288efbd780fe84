// Package gen generates ogm.Accessor implementations for registered classes.
//
// The generated accessors read and write struct fields with plain Go
// selectors, replacing the reflection based accessor metadata installs by
// default. Install them with schema.Class.Accessor:
//
//	g, err := gen.New(reg, gen.WithPackage("example.com/app/model"), gen.WithTarget("model"))
//	if err != nil {
//		return err
//	}
//	if err := g.Generate(ctx); err != nil {
//		return err
//	}
//
// and in the model package, after generation:
//
//	schema.Node(Actor{}).Accessor(ActorAccessor{})
package gen
