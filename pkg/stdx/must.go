package stdx

// Must0 panics if the provided error is not nil. It is intended for
// error handling in situations where an error is not expected and should
// terminate the program if it occurs.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 takes a value of any type and an error. If the error is not nil,
// it panics with the error. Otherwise, it returns the value.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Must2 takes two values of any type and an error. If the error is not nil,
// it panics with the error. Otherwise, it returns the two values.
func Must2[T any, V any](t T, v V, err error) (T, V) {
	if err != nil {
		panic(err)
	}
	return t, v
}
