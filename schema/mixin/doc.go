// Package mixin provides reusable property sets for class declarations.
//
// A mixin pairs a schema.Mixin, which declares properties by Go field
// name, with a struct holding those fields. Domain types embed the struct
// so the fields are promoted, and classes list the mixin:
//
//	type Article struct {
//		ID    *int64
//		Title string
//		mixin.TimeFields
//		mixin.SoftDeleteFields
//	}
//
//	schema.Node(Article{}).
//		ID("ID").
//		Fields(field.Prop("Title")).
//		Mixin(mixin.TimeSoftDelete{})
//
// Custom mixins embed Schema and override the methods they need:
//
//	type Audit struct {
//		mixin.Schema
//	}
//
//	func (Audit) Fields() []schema.Field {
//		return []schema.Field{
//			field.Prop("CreatedBy").Key("created_by"),
//		}
//	}
//
// For tenancy and external identifiers see contrib/mixin.
package mixin
