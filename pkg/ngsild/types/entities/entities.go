package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/tidwall/gjson"
)

var ErrInvalidEntity = errors.New("invalid entity")

// Entity is an NGSI-LD entity represented as an ordered mapping from attribute
// names to either a single instance (a mapping) or a list of instances.
type Entity struct {
	entityID   string
	entityType string

	context    any
	names      []string
	attributes map[string]any
}

func (e *Entity) ID() string {
	return e.entityID
}

func (e *Entity) Type() string {
	return e.entityType
}

// Context returns the context URIs of the entity in their original order
func (e *Entity) Context() []string {
	switch ctx := e.context.(type) {
	case string:
		return []string{ctx}
	case []string:
		return append([]string{}, ctx...)
	case []any:
		uris := make([]string, 0, len(ctx))
		for _, c := range ctx {
			if s, ok := c.(string); ok {
				uris = append(uris, s)
			}
		}
		return uris
	default:
		return []string{}
	}
}

// AttributeNames returns the names of all attributes in insertion order
func (e *Entity) AttributeNames() []string {
	return append([]string{}, e.names...)
}

// Attribute returns a copy of the raw value stored under name
func (e *Entity) Attribute(name string) (any, bool) {
	v, ok := e.attributes[name]
	if !ok {
		return nil, false
	}
	return cloneAttributeValue(v), true
}

// Instances returns copies of every instance stored under name
func (e *Entity) Instances(name string) []map[string]any {
	result := []map[string]any{}
	for _, instance := range instancesOf(e.attributes[name]) {
		result = append(result, types.Clone(instance))
	}
	return result
}

func (e *Entity) HasAttribute(name string, datasetID *url.URL) bool {
	_, ok := findInstance(e.attributes[name], datasetID)
	return ok
}

func (e *Entity) GetAttribute(name string, datasetID *url.URL) (map[string]any, bool) {
	instance, ok := findInstance(e.attributes[name], datasetID)
	if !ok {
		return nil, false
	}
	return types.Clone(instance), true
}

func (e *Entity) GetRelationshipObject(relationshipName string) (*url.URL, bool) {
	return relationshipObject(e.attributes[relationshipName])
}

// ForEachAttribute calls callback once for every attribute instance of the entity
func (e *Entity) ForEachAttribute(callback func(attributeType, attributeName string, contents any)) error {
	for _, name := range e.names {
		value := e.attributes[name]

		instances := instancesOf(value)
		if len(instances) == 0 {
			callback("", name, cloneAttributeValue(value))
			continue
		}

		for _, instance := range instances {
			attributeType, _ := instance["type"].(string)
			callback(attributeType, name, types.Clone(instance))
		}
	}

	return nil
}

// Map returns a copy of the complete entity mapping, including id, type and @context
func (e *Entity) Map() map[string]any {
	m := make(map[string]any, len(e.names)+3)
	m["id"] = e.entityID
	if e.entityType != "" {
		m["type"] = e.entityType
	}
	for _, name := range e.names {
		m[name] = cloneAttributeValue(e.attributes[name])
	}
	if e.context != nil {
		m["@context"] = e.context
	}
	return m
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	fields := make([]field, 0, len(e.names)+3)
	fields = append(fields, field{"id", e.entityID})

	if e.entityType != "" {
		fields = append(fields, field{"type", e.entityType})
	}

	for _, name := range e.names {
		fields = append(fields, field{name, e.attributes[name]})
	}

	if e.context != nil {
		fields = append(fields, field{"@context", e.context})
	}

	return marshalOrdered(fields)
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("failed to unmarshal entity: invalid json")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fmt.Errorf("failed to unmarshal entity: expected an object but got %s", doc.Type.String())
	}

	e.entityID = ""
	e.entityType = ""
	e.context = nil
	e.names = []string{}
	e.attributes = map[string]any{}

	var err error

	doc.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "id":
			e.entityID = value.String()
		case "type":
			e.entityType = value.String()
		case "@context":
			e.context, err = decodeContext(value)
		default:
			var v any
			if err = json.Unmarshal([]byte(value.Raw), &v); err != nil {
				err = fmt.Errorf("failed to unmarshal attribute %s: %w", key.String(), err)
				return false
			}
			e.set(key.String(), normalize(v))
		}
		return err == nil
	})

	return err
}

func (e *Entity) set(name string, value any) {
	if _, exists := e.attributes[name]; !exists {
		e.names = append(e.names, name)
	}
	e.attributes[name] = value
}

// NewFromJSON decodes an entity as returned by a context broker
func NewFromJSON(body []byte) (*Entity, error) {
	e := &Entity{}

	err := json.Unmarshal(body, e)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	if e.ID() == "" {
		return nil, fmt.Errorf("failed to parse entity: missing id (%w)", ErrInvalidEntity)
	}

	return e, nil
}

// NewFromSlice decodes a JSON array of entities
func NewFromSlice(body []byte) ([]*Entity, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to unmarshal entities: invalid json")
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("failed to unmarshal entities: expected an array but got %s", doc.Type.String())
	}

	arr := []*Entity{}

	var err error
	doc.ForEach(func(_, value gjson.Result) bool {
		var e *Entity
		e, err = NewFromJSON([]byte(value.Raw))
		if err != nil {
			return false
		}
		arr = append(arr, e)
		return true
	})

	if err != nil {
		return nil, err
	}

	return arr, nil
}

func decodeContext(value gjson.Result) (any, error) {
	switch {
	case value.Type == gjson.String:
		return value.String(), nil
	case value.IsArray():
		var ctx []any
		err := json.Unmarshal([]byte(value.Raw), &ctx)
		if err != nil {
			return nil, fmt.Errorf("unsupported context: %w", err)
		}
		return ctx, nil
	case value.IsObject():
		var ctx map[string]any
		err := json.Unmarshal([]byte(value.Raw), &ctx)
		if err != nil {
			return nil, fmt.Errorf("unsupported context: %w", err)
		}
		return ctx, nil
	default:
		return nil, fmt.Errorf("unsupported context: %s", value.Raw)
	}
}

// normalize turns a list of instance mappings into a []map[string]any
func normalize(v any) any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return v
	}

	instances := make([]map[string]any, 0, len(list))
	for _, item := range list {
		instance, ok := item.(map[string]any)
		if !ok {
			return v
		}
		instances = append(instances, instance)
	}

	return instances
}

func cloneAttributeValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return types.Clone(typed)
	case []map[string]any:
		c := make([]map[string]any, len(typed))
		for idx := range typed {
			c[idx] = types.Clone(typed[idx])
		}
		return c
	default:
		wrapped := types.Clone(map[string]any{"v": v})
		return wrapped["v"]
	}
}
