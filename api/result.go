package api

// RunResult carries either the outcome of a completed run or the error that
// ended it.
type RunResult[T any] struct {
	Success T
	Err     error
}

func (r RunResult[T]) IsSuccess() bool {
	return r.Err == nil
}

func (r RunResult[T]) IsError() bool {
	return r.Err != nil
}
