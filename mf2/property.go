package mf2

import "fmt"

// Kind identifies which shape a decoded mf2 property value arrived in.
type Kind int

const (
	// KindSingle is a bare scalar value, e.g. "content": "hello".
	KindSingle Kind = iota
	// KindList is a homogeneous array of scalars, e.g. "category": ["a", "b"].
	KindList
	// KindObject is a single structured value, e.g. {"html": "<p>hi</p>"}.
	KindObject
	// KindObjectList is an array of structured values.
	KindObjectList
	// KindValueList is a heterogeneous array mixing scalars and objects.
	// Some clients send photo arrays like [{"value": u, "alt": a}, "https://..."].
	KindValueList
)

// PropertyValue is the decoding intermediate for one mf2 property. It never
// escapes this package: decoding resolves every PropertyValue into typed
// Entry fields before returning.
type PropertyValue struct {
	kind       Kind
	single     string
	list       []string
	object     map[string]PropertyValue
	objectList []map[string]PropertyValue
	valueList  []PropertyValue
}

func Single(s string) PropertyValue {
	return PropertyValue{kind: KindSingle, single: s}
}

func List(ss ...string) PropertyValue {
	return PropertyValue{kind: KindList, list: ss}
}

func Object(m map[string]PropertyValue) PropertyValue {
	return PropertyValue{kind: KindObject, object: m}
}

func ObjectList(ms ...map[string]PropertyValue) PropertyValue {
	return PropertyValue{kind: KindObjectList, objectList: ms}
}

func ValueList(vs ...PropertyValue) PropertyValue {
	return PropertyValue{kind: KindValueList, valueList: vs}
}

func (v PropertyValue) Kind() Kind { return v.kind }

// AsSingle returns the scalar payload when the value is a bare scalar.
func (v PropertyValue) AsSingle() (string, bool) {
	return v.single, v.kind == KindSingle
}

func (v PropertyValue) AsList() ([]string, bool) {
	return v.list, v.kind == KindList
}

func (v PropertyValue) AsObject() (map[string]PropertyValue, bool) {
	return v.object, v.kind == KindObject
}

func (v PropertyValue) AsObjectList() ([]map[string]PropertyValue, bool) {
	return v.objectList, v.kind == KindObjectList
}

func (v PropertyValue) AsValueList() ([]PropertyValue, bool) {
	return v.valueList, v.kind == KindValueList
}

// classifyValue maps a json-decoded value onto the PropertyValue union.
// Arrays are classified by their contents: all strings -> List, all objects
// -> ObjectList, anything mixed -> ValueList. Shapes mf2 does not use
// (numbers, booleans, null) are rejected so the caller can log and skip.
func classifyValue(raw any) (PropertyValue, error) {
	switch v := raw.(type) {
	case string:
		return Single(v), nil
	case map[string]any:
		obj, err := classifyObject(v)
		if err != nil {
			return PropertyValue{}, err
		}
		return Object(obj), nil
	case []any:
		return classifyArray(v)
	default:
		return PropertyValue{}, fmt.Errorf("unsupported mf2 value of type %T", raw)
	}
}

func classifyObject(m map[string]any) (map[string]PropertyValue, error) {
	out := make(map[string]PropertyValue, len(m))
	for k, raw := range m {
		v, err := classifyValue(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func classifyArray(arr []any) (PropertyValue, error) {
	allStrings := true
	allObjects := true
	for _, e := range arr {
		switch e.(type) {
		case string:
			allObjects = false
		case map[string]any:
			allStrings = false
		default:
			allStrings = false
			allObjects = false
		}
	}

	switch {
	case allStrings:
		ss := make([]string, len(arr))
		for i, e := range arr {
			ss[i] = e.(string)
		}
		return List(ss...), nil
	case allObjects:
		ms := make([]map[string]PropertyValue, len(arr))
		for i, e := range arr {
			obj, err := classifyObject(e.(map[string]any))
			if err != nil {
				return PropertyValue{}, fmt.Errorf("index %d: %w", i, err)
			}
			ms[i] = obj
		}
		return ObjectList(ms...), nil
	default:
		vs := make([]PropertyValue, len(arr))
		for i, e := range arr {
			v, err := classifyValue(e)
			if err != nil {
				return PropertyValue{}, fmt.Errorf("index %d: %w", i, err)
			}
			vs[i] = v
		}
		return ValueList(vs...), nil
	}
}
