package mixin

import (
	"time"

	"github.com/syssam/ogm/schema"
	"github.com/syssam/ogm/schema/field"
)

// Schema is the default implementation of schema.Mixin. Embed it in custom
// mixins and override the methods you need.
type Schema struct{}

// Fields returns the properties of the mixin.
func (Schema) Fields() []schema.Field { return nil }

// Edges returns the relationships of the mixin.
func (Schema) Edges() []schema.Edge { return nil }

// Annotations returns the annotations of the mixin.
func (Schema) Annotations() []schema.Annotation { return nil }

var _ schema.Mixin = (*Schema)(nil)

// TimeFields holds the timestamps mapped by Time. Embed it in domain types.
type TimeFields struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch sets UpdatedAt to now, and CreatedAt too when it was never set.
func (t *TimeFields) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// Time maps the created_at and updated_at properties of an embedded
// TimeFields.
//
//	type Post struct {
//		ID *int64
//		mixin.TimeFields
//	}
//
//	schema.Node(Post{}).ID("ID").Mixin(mixin.Time{})
type Time struct {
	Schema
}

// Fields returns the timestamp properties.
func (Time) Fields() []schema.Field {
	return []schema.Field{
		field.Prop("CreatedAt").Key("created_at").Comment("Time the object was first saved"),
		field.Prop("UpdatedAt").Key("updated_at").Comment("Time the object was last saved"),
	}
}

// SoftDeleteFields holds the deletion mark mapped by SoftDelete.
type SoftDeleteFields struct {
	DeletedAt *time.Time
}

// MarkDeleted records the deletion time.
func (s *SoftDeleteFields) MarkDeleted(now time.Time) {
	s.DeletedAt = &now
}

// Deleted reports whether the object is marked deleted.
func (s SoftDeleteFields) Deleted() bool {
	return s.DeletedAt != nil
}

// SoftDelete maps the deleted_at property of an embedded SoftDeleteFields.
// Marked objects stay in the graph; filter them with cypher.IsNull on
// "DeletedAt".
type SoftDelete struct {
	Schema
}

// Fields returns the deletion property.
func (SoftDelete) Fields() []schema.Field {
	return []schema.Field{
		field.Prop("DeletedAt").Key("deleted_at").Comment("Time the object was soft deleted, nil when live"),
	}
}

// TimeSoftDelete combines Time and SoftDelete.
type TimeSoftDelete struct {
	Schema
}

// Fields returns the timestamp and deletion properties.
func (TimeSoftDelete) Fields() []schema.Field {
	return append(Time{}.Fields(), SoftDelete{}.Fields()...)
}

// Annotate wraps m and attaches annotations to every class it is mixed into.
//
//	mixin.Annotate(mixin.Time{}, schema.Comment("audited"))
func Annotate(m schema.Mixin, annotations ...schema.Annotation) schema.Mixin {
	return annotator{Mixin: m, annotations: annotations}
}

type annotator struct {
	schema.Mixin
	annotations []schema.Annotation
}

func (a annotator) Annotations() []schema.Annotation {
	return append(a.Mixin.Annotations(), a.annotations...)
}
