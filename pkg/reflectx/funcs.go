package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether the provided value is a function.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName resolves a human-readable name for a function value.
// Named function types report their type name; methods and anonymous
// functions fall back to the runtime symbol with the package path and
// method-value suffix stripped.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()

	if typ.Name() != "" {
		return typ.String()
	}

	if rf := runtime.FuncForPC(val.Pointer()); rf != nil {
		name := rf.Name()
		if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
			name = strings.TrimSuffix(name[lastDot+1:], "-fm")
		}
		return name
	}
	return typ.String()
}
