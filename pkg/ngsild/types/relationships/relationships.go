package relationships

import (
	"net/url"
	"time"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
)

// Builder accumulates the fields of a single Relationship instance
type Builder struct {
	name     string
	contents map[string]any
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name:     name,
		contents: map[string]any{},
	}
}

// WithObject sets the id of the entity that this relationship points at
func (b *Builder) WithObject(object string) *Builder {
	if object != "" {
		b.contents["object"] = object
	}
	return b
}

// WithObjects creates a relationship to multiple objects
func (b *Builder) WithObjects(objects []string) *Builder {
	if len(objects) > 0 {
		b.contents["object"] = append([]string{}, objects...)
	}
	return b
}

func (b *Builder) WithObservedAt(observedAt *time.Time) *Builder {
	if observedAt != nil && !observedAt.IsZero() {
		b.contents["observedAt"] = observedAt.UTC().Format(time.RFC3339Nano)
	}
	return b
}

func (b *Builder) WithDatasetID(datasetID *url.URL) *Builder {
	if datasetID != nil {
		b.contents["datasetId"] = datasetID.String()
	}
	return b
}

func (b *Builder) Build() types.Attribute {
	contents := types.Clone(b.contents)
	contents["type"] = types.RelationshipType
	return types.NewAttribute(b.name, contents)
}

// New returns the bare instance mapping of a relationship to a single object
func New(object string) map[string]any {
	return map[string]any{
		"type":   types.RelationshipType,
		"object": object,
	}
}

// NewSingleObjectRelationship builds a named relationship to a single object
func NewSingleObjectRelationship(name, object string) types.Attribute {
	return NewBuilder(name).WithObject(object).Build()
}

// NewMultiObjectRelationship builds a named relationship to a list of objects
func NewMultiObjectRelationship(name string, objects []string) types.Attribute {
	return NewBuilder(name).WithObjects(objects).Build()
}
