package types

import (
	"encoding/json"
	"net/url"
	"reflect"
)

const (
	// CoreContextURL is the @context used when an entity is built without any explicit contexts
	CoreContextURL string = "https://uri.etsi.org/ngsi-ld/v1/ngsi-ld-core-context.jsonld"

	PropertyType     string = "Property"
	GeoPropertyType  string = "GeoProperty"
	RelationshipType string = "Relationship"
)

// Attribute is one built instance of a named NGSI-LD Property or Relationship.
// The contents can not be changed once the attribute has been created.
type Attribute struct {
	name     string
	contents map[string]any
}

func NewAttribute(name string, contents map[string]any) Attribute {
	return Attribute{
		name:     name,
		contents: Clone(contents),
	}
}

func (a Attribute) Name() string {
	return a.name
}

func (a Attribute) Type() string {
	t, _ := a.contents["type"].(string)
	return t
}

// DatasetID returns the dataset id of this instance, or nil if it is the default instance
func (a Attribute) DatasetID() *url.URL {
	id, ok := DatasetIDOf(a.contents)
	if !ok {
		return nil
	}

	u, err := url.Parse(id)
	if err != nil {
		return nil
	}

	return u
}

// Contents returns a copy of the instance mapping
func (a Attribute) Contents() map[string]any {
	return Clone(a.contents)
}

func (a Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.contents)
}

// Clone makes a deep copy of a decoded JSON mapping so that callers can not
// modify the contents of a built attribute or entity
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}

	return c
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return Clone(typed)
	case []map[string]any:
		c := make([]map[string]any, len(typed))
		for idx := range typed {
			c[idx] = Clone(typed[idx])
		}
		return c
	case []any:
		c := make([]any, len(typed))
		for idx := range typed {
			c[idx] = cloneValue(typed[idx])
		}
		return c
	case []string:
		return append([]string{}, typed...)
	case nil:
		return nil
	default:
		return cloneReflected(reflect.ValueOf(v)).Interface()
	}
}

// cloneReflected copies slices, arrays and maps of any element type, such as
// []float64 coordinates, so that built values never share memory with the caller
func cloneReflected(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(cloneElement(v.Index(i)))
		}
		return c
	case reflect.Array:
		c := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(cloneElement(v.Index(i)))
		}
		return c
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), cloneElement(iter.Value()))
		}
		return c
	default:
		return v
	}
}

func cloneElement(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		c := reflect.ValueOf(cloneValue(v.Interface()))
		r := reflect.New(v.Type()).Elem()
		r.Set(c)
		return r
	}
	return cloneReflected(v)
}
