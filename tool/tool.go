package tool

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/agora-dev/symposium/pkg/reflectx"
	"github.com/agora-dev/symposium/pkg/stdx"
	"github.com/agora-dev/symposium/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes a function an agent may call: its name, a
// human-readable description, the display names of its parameters, and the
// function value itself.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema derives the tool name and a JSON schema for the function's
// parameters through reflection.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return functionDefinitionJSON(&functionReflector, td)
}

func functionDefinitionJSON(reflector *jsonschema.Reflector, f Definition) (string, *jsonschema.Schema) {
	val := reflect.ValueOf(f.Function)
	typ := val.Type()

	name := f.Name
	if name == "" && typ.Kind() == reflect.Func {
		// Named function types report their type name, everything else is
		// resolved through the runtime symbol table.
		if typ.Name() != "" {
			name = typ.String()
		} else if fn := runtime.FuncForPC(val.Pointer()); fn != nil {
			name = fn.Name()
			if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
				name = name[lastDot+1:]
			}
		} else {
			name = typ.String()
		}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	if typ.Kind() == reflect.Func {
		numIn := typ.NumIn()
		startIdx := 0
		// Skip the receiver for methods.
		if numIn > 0 && typ.In(0).Kind() == reflect.Struct {
			startIdx = 1
		}

		var required []string
		// Positional keys count only schema-visible parameters, skipped
		// ContextVars must not shift them.
		paramIdx := 0
		for i := startIdx; i < numIn; i++ {
			paramType := typ.In(i)
			// Context variables are injected by the executor, the model never
			// sees them.
			if reflectx.IsRefinedType[types.ContextVars](paramType) {
				continue
			}

			paramName := fmt.Sprintf("param%d", paramIdx)
			paramIdx++
			if f.Parameters != nil {
				if p, ok := f.Parameters[paramName]; ok {
					paramName = p
				}
			}

			propSchema := reflector.ReflectFromType(paramType)
			propSchema.Version = ""
			schema.Properties.Set(paramName, propSchema)
			required = append(required, paramName)
		}
		if len(required) > 0 {
			schema.Required = required
		}
	}

	return name, schema
}

// Option configures a tool definition.
type Option = opts.Option[Definition]

// Must is like New but panics when the definition cannot be built. Intended
// for package-level tool declarations where a bad definition is a programming
// error.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New builds a tool definition from a function and the provided options.
// When no Name option is given the function's own name is used.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Name sets the tool's name.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the tool's description.
var Description = opts.ForName[Definition, string]("Description")

// Parameters assigns display names to the function's positional parameters,
// in order. The underlying keys remain "paramN".
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}
