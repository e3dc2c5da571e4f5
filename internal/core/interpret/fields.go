package interpret

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/penwyp/go-wesgr/internal/core/model"
)

// Field names of the record schema
const (
	fieldKind   = "kind"
	fieldEntity = "entity"
	fieldToken  = "token"
	fieldTS     = "ts"
	fieldLabel  = "label"
	fieldText   = "text"
	fieldName   = "name"
	fieldType   = "type"
	fieldID     = "id"
)

type record map[string]interface{}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32, uint64, uint32:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func (r record) requireString(name string) (string, error) {
	v, ok := r[name]
	if !ok {
		return "", fmt.Errorf("missing field %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is a %s, want string", name, typeName(v))
	}
	return s, nil
}

func (r record) optionalString(name string) (string, error) {
	if _, ok := r[name]; !ok {
		return "", nil
	}
	return r.requireString(name)
}

func (r record) requireInt(name string) (int64, error) {
	v, ok := r[name]
	if !ok {
		return 0, fmt.Errorf("missing field %q", name)
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("field %q is %s %v, want integer", name, typeName(v), v)
	}
	return n, nil
}

// token accepts a non-empty string or an integer and normalizes it to a string
func (r record) token() (string, error) {
	v, ok := r[fieldToken]
	if !ok {
		return "", fmt.Errorf("missing field %q", fieldToken)
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return "", fmt.Errorf("field %q is empty", fieldToken)
		}
		return s, nil
	}
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("field %q is a %s, want string or integer", fieldToken, typeName(v))
}

// entity accepts "output.0" or {"type":"output","id":0}
func (r record) entity() (model.EntityKey, error) {
	v, ok := r[fieldEntity]
	if !ok {
		return "", fmt.Errorf("missing field %q", fieldEntity)
	}
	switch e := v.(type) {
	case string:
		if e == "" {
			return "", fmt.Errorf("field %q is empty", fieldEntity)
		}
		return model.EntityKey(e), nil
	case map[string]interface{}:
		composite := record(e)
		typ, err := composite.requireString(fieldType)
		if err != nil || typ == "" {
			return "", fmt.Errorf("composite %q needs a non-empty %q", fieldEntity, fieldType)
		}
		id, ok := composite[fieldID]
		if !ok {
			return "", fmt.Errorf("composite %q needs an %q", fieldEntity, fieldID)
		}
		if n, ok := toInt64(id); ok {
			return model.EntityKey(typ + "." + strconv.FormatInt(n, 10)), nil
		}
		if s, ok := id.(string); ok && s != "" {
			return model.EntityKey(typ + "." + s), nil
		}
		return "", fmt.Errorf("composite %q has a %s %q, want integer or string", fieldEntity, typeName(id), fieldID)
	default:
		return "", fmt.Errorf("field %q is a %s, want string or object", fieldEntity, typeName(v))
	}
}

// toInt64 converts decoded JSON numbers. Fractional values are rejected.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
