package reflectx

import "reflect"

// ResultImplements checks if any of the result arguments of a function
// implements the given interface type T. The function parameter can be either
// a function value or a reflect.Type of a function.
func ResultImplements[T any](function any) bool {
	if function == nil {
		return false
	}

	var fnType reflect.Type
	switch v := function.(type) {
	case reflect.Type:
		if v.Kind() != reflect.Func {
			return false
		}
		fnType = v
	default:
		fnType = reflect.TypeOf(function)
		if fnType.Kind() != reflect.Func {
			return false
		}
	}

	var zero T
	ifaceType := reflect.TypeOf(&zero).Elem()

	for i := 0; i < fnType.NumOut(); i++ {
		if fnType.Out(i).Implements(ifaceType) {
			return true
		}
	}
	return false
}
