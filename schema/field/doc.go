// Package field provides fluent builders for declaring the scalar properties
// of a graph class.
//
// A property is named by its Go struct field. The graph key defaults to the
// field name with its leading word lower-cased:
//
//	field.Prop("Name")              // key: name
//	field.Prop("PrimitiveIntArray") // key: primitiveIntArray
//	field.Prop("UserID")            // key: userID
//
// # Options
//
//	field.Prop("Title").Key("movie_title")      // explicit graph key
//	field.Prop("Genre").Enum(Drama, Comedy)     // enumeration stored by name
//	field.Prop("Rating").Convert(myConverter)   // explicit converter
//
// The declared Go type of the field selects the converter; see package
// convert for the value model.
package field
