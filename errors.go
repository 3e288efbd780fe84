package ogm

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors. Every typed error below matches exactly one of
// them through errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("ogm: entity not found")

	// ErrConfiguration is returned for bad or ambiguous class metadata.
	ErrConfiguration = errors.New("ogm: invalid configuration")

	// ErrUnknownType is returned when a mapping is requested for a type that
	// was never registered.
	ErrUnknownType = errors.New("ogm: unknown type")

	// ErrUnsupportedPropertyType is returned when no converter exists for a
	// declared property type.
	ErrUnsupportedPropertyType = errors.New("ogm: unsupported property type")

	// ErrIdentityConflict is returned when two distinct objects claim the same
	// graph identity within one mapping context.
	ErrIdentityConflict = errors.New("ogm: identity conflict")

	// ErrMappingFailure is returned when a graph record cannot be mapped.
	ErrMappingFailure = errors.New("ogm: mapping failure")

	// ErrConversion is returned when a value cannot be converted by the
	// converter declared for its property.
	ErrConversion = errors.New("ogm: conversion failed")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the graph identity that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("ogm: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("ogm: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the identity that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity label.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the identity that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigurationError represents bad or ambiguous class metadata. It is raised
// while registering classes, never while mapping.
type ConfigurationError struct {
	Class   string // Domain class name (if applicable)
	Member  string // Property or relationship name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("ogm: configuration error")
	if e.Class != "" {
		b.WriteString(" on class ")
		b.WriteString(e.Class)
	}
	if e.Member != "" {
		b.WriteString(" member ")
		b.WriteString(e.Member)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(class, member, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Class:   class,
		Member:  member,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// UnknownTypeError is returned when a mapping is requested for an
// unregistered domain type.
type UnknownTypeError struct {
	Type string
}

// Error implements the error interface.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("ogm: type %s is not registered", e.Type)
}

// Is reports whether the target matches ErrUnknownType.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// NewUnknownTypeError creates a new UnknownTypeError.
func NewUnknownTypeError(typ string) *UnknownTypeError {
	return &UnknownTypeError{Type: typ}
}

// IsUnknownType returns true if the error is an UnknownTypeError.
func IsUnknownType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownType)
}

// UnsupportedPropertyTypeError is returned at registration time when a
// declared property has a type no converter can handle.
type UnsupportedPropertyTypeError struct {
	Class    string
	Property string
	Type     string
}

// Error implements the error interface.
func (e *UnsupportedPropertyTypeError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("ogm: no converter for type %s", e.Type)
	}
	return fmt.Sprintf("ogm: no converter for property %s.%s of type %s", e.Class, e.Property, e.Type)
}

// Is reports whether the target matches ErrUnsupportedPropertyType.
func (e *UnsupportedPropertyTypeError) Is(target error) bool {
	return target == ErrUnsupportedPropertyType
}

// NewUnsupportedPropertyTypeError creates a new UnsupportedPropertyTypeError.
func NewUnsupportedPropertyTypeError(class, property, typ string) *UnsupportedPropertyTypeError {
	return &UnsupportedPropertyTypeError{Class: class, Property: property, Type: typ}
}

// IsUnsupportedPropertyType returns true if the error is an UnsupportedPropertyTypeError.
func IsUnsupportedPropertyType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedPropertyTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedPropertyType)
}

// IdentityConflictError is returned when two distinct object references
// claim the same graph identity within one mapping context. It always
// indicates a programming error and is never resolved silently.
type IdentityConflictError struct {
	ID       int64
	Existing string // Type of the object already holding the identity
	Incoming string // Type of the object that attempted to claim it
}

// Error implements the error interface.
func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("ogm: graph identity %d already held by another %s (incoming %s)", e.ID, e.Existing, e.Incoming)
}

// Is reports whether the target matches ErrIdentityConflict.
func (e *IdentityConflictError) Is(target error) bool {
	return target == ErrIdentityConflict
}

// NewIdentityConflictError creates a new IdentityConflictError.
func NewIdentityConflictError(id int64, existing, incoming string) *IdentityConflictError {
	return &IdentityConflictError{ID: id, Existing: existing, Incoming: incoming}
}

// IsIdentityConflict returns true if the error is an IdentityConflictError.
func IsIdentityConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *IdentityConflictError
	return errors.As(err, &e) || errors.Is(err, ErrIdentityConflict)
}

// MappingFailure is returned when a graph record cannot be matched to a
// registered class, when a relationship references an endpoint that is
// absent from the result, or when an object graph cannot be written.
type MappingFailure struct {
	Record string // e.g. "node 12" or "relationship 7"
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *MappingFailure) Error() string {
	var b strings.Builder
	b.WriteString("ogm: cannot map")
	if e.Record != "" {
		b.WriteString(" ")
		b.WriteString(e.Record)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *MappingFailure) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrMappingFailure.
func (e *MappingFailure) Is(target error) bool {
	return target == ErrMappingFailure
}

// NewMappingFailure creates a new MappingFailure.
func NewMappingFailure(record, reason string, cause error) *MappingFailure {
	return &MappingFailure{Record: record, Reason: reason, Cause: cause}
}

// IsMappingFailure returns true if the error is a MappingFailure.
func IsMappingFailure(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingFailure
	return errors.As(err, &e) || errors.Is(err, ErrMappingFailure)
}

// ConversionError reports a value that could not be converted by the
// converter of its property.
type ConversionError struct {
	Entity   string
	Property string
	Value    any
	Err      error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("ogm: cannot convert %#v: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("ogm: cannot convert %s.%s value %#v: %v", e.Entity, e.Property, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// NewConversionError creates a new ConversionError.
func NewConversionError(entity, property string, value any, err error) *ConversionError {
	return &ConversionError{Entity: entity, Property: property, Value: value, Err: err}
}

// IsConversionError returns true if the error is a ConversionError.
func IsConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConversionError
	return errors.As(err, &e) || errors.Is(err, ErrConversion)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "ogm: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("ogm: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As search all of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a driver error raised while loading or querying.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "load", "load_all", "query")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ogm: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("ogm: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a driver error raised while applying save or delete statements.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "save", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("ogm: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
