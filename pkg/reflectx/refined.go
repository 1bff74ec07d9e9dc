package reflectx

import "reflect"

// IsRefinedType checks if the provided reflect.Type matches the type of the
// generic parameter R.
func IsRefinedType[R any](value reflect.Type) bool {
	var toMatch R
	return reflect.TypeOf(toMatch) == value
}
