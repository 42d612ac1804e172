package properties

import (
	"net/url"
	"time"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/relationships"
)

const (
	DateCreated  string = "dateCreated"
	DateModified string = "dateModified"
	DateObserved string = "dateObserved"

	Description string = "description"
	Location    string = "location"
	Name        string = "name"
	Temperature string = "temperature"
)

// Builder accumulates the fields of a single Property instance. Setters that
// receive a nil or empty argument leave the field unset.
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

func (b *Builder) WithValue(value any) *Builder {
	if value != nil {
		b.contents["value"] = value
	}
	return b
}

// WithObservedAt stores the timestamp as an ISO 8601 string in UTC
func (b *Builder) WithObservedAt(observedAt *time.Time) *Builder {
	if observedAt != nil && !observedAt.IsZero() {
		b.contents["observedAt"] = observedAt.UTC().Format(time.RFC3339Nano)
	}
	return b
}

func (b *Builder) WithUnitCode(unitCode string) *Builder {
	if unitCode != "" {
		b.contents["unitCode"] = unitCode
	}
	return b
}

func (b *Builder) WithDatasetID(datasetID *url.URL) *Builder {
	if datasetID != nil {
		b.contents["datasetId"] = datasetID.String()
	}
	return b
}

// WithSubProperty adds a nested Property with the given value
func (b *Builder) WithSubProperty(name string, value any) *Builder {
	if name != "" && value != nil {
		b.contents[name] = New(value)
	}
	return b
}

// Build returns an attribute with the accumulated fields and type Property.
// The builder may be reused, later changes do not affect attributes already built.
func (b *Builder) Build() types.Attribute {
	contents := types.Clone(b.contents)
	contents["type"] = types.PropertyType
	return types.NewAttribute(b.name, contents)
}

// New returns the bare instance mapping of a property holding value
func New(value any) map[string]any {
	return map[string]any{
		"type":  types.PropertyType,
		"value": value,
	}
}

type PropertyDecoratorFunc func(b *Builder)

func ObservedAt(timestamp string) PropertyDecoratorFunc {
	return func(b *Builder) {
		if timestamp != "" {
			b.contents["observedAt"] = timestamp
		}
	}
}

func ObservedBy(object string) PropertyDecoratorFunc {
	return func(b *Builder) {
		if object != "" {
			b.contents["observedBy"] = relationships.New(object)
		}
	}
}

func UnitCode(code string) PropertyDecoratorFunc {
	return func(b *Builder) {
		b.WithUnitCode(code)
	}
}

func DatasetID(datasetID *url.URL) PropertyDecoratorFunc {
	return func(b *Builder) {
		b.WithDatasetID(datasetID)
	}
}

func SubProperty(name string, value any) PropertyDecoratorFunc {
	return func(b *Builder) {
		b.WithSubProperty(name, value)
	}
}

func build(name string, value any, decorators []PropertyDecoratorFunc) types.Attribute {
	b := NewBuilder(name).WithValue(value)
	for _, decorator := range decorators {
		decorator(b)
	}
	return b.Build()
}

// NewNumberProperty is a convenience function for creating number properties
func NewNumberProperty(name string, value float64, decorators ...PropertyDecoratorFunc) types.Attribute {
	return build(name, value, decorators)
}

// NewTextProperty accepts a value as a string and returns a new text property
func NewTextProperty(name, value string, decorators ...PropertyDecoratorFunc) types.Attribute {
	return build(name, value, decorators)
}

func NewTextListProperty(name string, value []string, decorators ...PropertyDecoratorFunc) types.Attribute {
	return build(name, append([]string{}, value...), decorators)
}

// NewDateTimeProperty creates a property from a UTC time stamp
func NewDateTimeProperty(name, value string, decorators ...PropertyDecoratorFunc) types.Attribute {
	return build(name, map[string]any{"@type": "DateTime", "@value": value}, decorators)
}
