package evaluator

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/thomasrohde/warpy/pkg/value"
)

// ValueToJSON marshals a Value to JSON bytes. Absent becomes null; floats
// that JSON cannot represent (inf, nan) are written as their str() text.
func ValueToJSON(v value.Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

func valueToRaw(v value.Value) any {
	switch val := v.(type) {
	case value.Int:
		return val.Value
	case value.Float:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return value.String(val)
		}
		return val.Value
	case value.Str:
		return val.Value
	case value.Bool:
		return val.Value
	}
	return nil
}

// VarsToJSON marshals a variable snapshot as a JSON object with keys in
// sorted order.
func VarsToJSON(vars map[string]value.Value) ([]byte, error) {
	if len(vars) == 0 {
		return []byte("{}"), nil
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := []byte{'{'}
	for i, name := range names {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		valBytes, err := ValueToJSON(vars[name])
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// VarsToJSONString is a convenience that returns a string.
func VarsToJSONString(vars map[string]value.Value) string {
	b, err := VarsToJSON(vars)
	if err != nil {
		return "{}"
	}
	return string(b)
}
