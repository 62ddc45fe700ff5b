package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/Desarso/stockagent/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "https://stockagent.local/tools/"

// maxSafeInteger is the largest integer a JSON number carries exactly.
const maxSafeInteger = 1 << 53

// compileSchema builds the validator for a declaration's parameters. Properties
// not declared are rejected unless the schema already says otherwise.
func compileSchema(name string, params models.Parameters) (*jsonschema.Schema, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema for %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema for %s: %w", name, err)
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("schema for %s is not an object", name)
	}
	if obj["required"] == nil {
		delete(obj, "required")
	}
	if _, set := obj["additionalProperties"]; !set {
		obj["additionalProperties"] = false
	}

	loc := schemaBaseURL + url.PathEscape(name) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(loc, obj); err != nil {
		return nil, fmt.Errorf("failed to add schema for %s: %w", name, err)
	}
	schema, err := compiler.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", name, err)
	}
	return schema, nil
}

// validateArguments checks raw against the compiled schema and returns the
// normalised arguments. A null value counts as absent.
func validateArguments(decl models.FunctionDeclaration, schema *jsonschema.Schema, raw map[string]interface{}) (Arguments, error) {
	verr := &ValidationError{ToolName: decl.Name}

	instance := make(map[string]interface{}, len(raw))
	for name, value := range raw {
		if value == nil {
			continue
		}
		v, err := toInstance(value)
		if err != nil {
			verr.add("field %q: %v", name, err)
			continue
		}
		instance[name] = v
	}
	if len(verr.Problems) > 0 {
		return nil, verr
	}

	if err := schema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, unit := range ve.BasicOutput().Errors {
				if unit.Error == nil {
					continue
				}
				loc := unit.InstanceLocation
				if loc == "" {
					loc = "/"
				}
				verr.add("at %s: %s", loc, unit.Error)
			}
		}
		if len(verr.Problems) == 0 {
			verr.add("%v", err)
		}
		return nil, verr
	}

	args := Arguments{}
	for name, value := range instance {
		prop, _ := decl.Parameters.Property(name)
		typ, _ := prop["type"].(string)
		switch typ {
		case "integer":
			n, err := toInt64(value)
			if err != nil {
				verr.add("field %q: %v", name, err)
				continue
			}
			args[name] = n
		case "number":
			f, err := value.(json.Number).Float64()
			if err != nil {
				verr.add("field %q: %v", name, err)
				continue
			}
			args[name] = f
		default:
			args[name] = raw[name]
		}
	}
	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return args, nil
}

// toInstance rewrites Go numbers as json.Number so the validator sees exactly
// what a JSON document would carry.
func toInstance(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid number %v", v)
		}
		return json.Number(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case float32:
		return toInstance(float64(v))
	case int:
		return json.Number(strconv.Itoa(v)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(v, 10)), nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			converted, err := toInstance(item)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			converted, err := toInstance(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	}
	return value, nil
}

func toInt64(value interface{}) (int64, error) {
	num, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
	if n, err := num.Int64(); err == nil {
		if n > maxSafeInteger || n < -maxSafeInteger {
			return 0, fmt.Errorf("integer %d out of range", n)
		}
		return n, nil
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxSafeInteger {
		return 0, fmt.Errorf("integer %s out of range", num)
	}
	return int64(f), nil
}
