// Package metadata describes how registered Go types map onto graph
// elements.
//
// A Registry turns schema declarations into ClassDescriptors: labels,
// identity field, converted properties and relationship descriptors.
// Registration happens once at startup and is validated as a whole; the
// first read seals the registry:
//
//	reg := metadata.New(convert.NewRegistry())
//	if err := reg.Register(classes...); err != nil {
//	    log.Fatal(err) // configuration errors are fatal
//	}
//	desc, err := reg.Describe(&Actor{})
//
// Several registries may coexist, which keeps tests independent.
package metadata
