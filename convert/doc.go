// Package convert translates domain values into the native value types a
// graph database can store as properties, and back.
//
// Natively storable values are booleans, int64, float64, strings and
// homogeneous arrays of those. Everything else goes through a converter:
//
//   - byte sequences are stored as standard Base64 text
//   - arrays and slices of scalars become homogeneous native arrays
//   - enumerations registered with [Registry.RegisterEnum] are stored by name
//   - time.Time is stored as RFC 3339 text, uuid.UUID as its canonical form
//   - types implementing encoding.TextMarshaler are stored as their text
//
// Pointers add nullability: a nil pointer converts to nil and a nil native
// value converts back to a nil pointer.
package convert
