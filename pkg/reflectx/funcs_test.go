package reflectx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedFunc func(string) string

func namedTool(a string) string { return a }

type sample struct{}

func (sample) Method() error { return nil }

func TestIsFunction(t *testing.T) {
	assert.True(t, IsFunction(namedTool))
	assert.True(t, IsFunction(func() {}))
	assert.False(t, IsFunction(nil))
	assert.False(t, IsFunction(42))
	assert.False(t, IsFunction("func"))
}

func TestFunctionName(t *testing.T) {
	assert.Equal(t, "namedTool", FunctionName(namedTool))
	assert.Equal(t, "", FunctionName(nil))
	assert.Equal(t, "", FunctionName(3))

	var nf namedFunc = namedTool
	assert.Equal(t, "reflectx.namedFunc", FunctionName(nf))
}

func TestIsRefinedType(t *testing.T) {
	type vars map[string]any
	assert.True(t, IsRefinedType[vars](reflect.TypeOf(vars{})))
	assert.False(t, IsRefinedType[vars](reflect.TypeOf(map[string]string{})))
}

func TestResultImplements(t *testing.T) {
	returnsError := func() error { return nil }
	returnsString := func() string { return "" }

	assert.True(t, ResultImplements[error](returnsError))
	assert.False(t, ResultImplements[error](returnsString))
	assert.False(t, ResultImplements[error](nil))
	assert.False(t, ResultImplements[error]("not a function"))
	assert.True(t, ResultImplements[error](reflect.TypeOf(returnsError)))
	assert.False(t, ResultImplements[error](reflect.TypeOf("")))
}
