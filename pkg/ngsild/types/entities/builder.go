package entities

import (
	"fmt"
	"slices"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
)

var reservedNames = []string{"id", "type", "@context"}

// Builder collects previously built attributes into a new entity
type Builder struct {
	entityID   string
	entityType string
	contexts   []string

	names      []string
	attributes map[string]any
}

func NewBuilder(entityID, entityType string, contexts ...string) *Builder {
	return &Builder{
		entityID:   entityID,
		entityType: entityType,
		contexts:   append([]string{}, contexts...),
		attributes: map[string]any{},
	}
}

// AddAttribute registers attr under its name. A later attribute with the same name
// replaces the earlier one, use AddFragment for multi-instance attributes.
func (b *Builder) AddAttribute(attr types.Attribute) *Builder {
	name := attr.Name()

	if _, exists := b.attributes[name]; !exists {
		b.names = append(b.names, name)
	}

	b.attributes[name] = attr.Contents()
	return b
}

// AddFragment registers every name in the fragment. Names with several instances
// keep all of them.
func (b *Builder) AddFragment(f Fragment) *Builder {
	for _, name := range f.Names() {
		if _, exists := b.attributes[name]; !exists {
			b.names = append(b.names, name)
		}

		b.attributes[name], _ = f.Get(name)
	}
	return b
}

func (b *Builder) Build() (*Entity, error) {
	if _, err := types.ParseURI(b.entityID); err != nil {
		return nil, fmt.Errorf("entity id %w (%w)", err, ErrInvalidEntity)
	}

	if b.entityType == "" {
		return nil, fmt.Errorf("entity type must not be empty (%w)", ErrInvalidEntity)
	}

	for _, name := range b.names {
		if slices.Contains(reservedNames, name) {
			return nil, fmt.Errorf("attribute name %q is reserved (%w)", name, ErrInvalidEntity)
		}
	}

	e := &Entity{
		entityID:   b.entityID,
		entityType: b.entityType,
		names:      append([]string{}, b.names...),
		attributes: make(map[string]any, len(b.names)),
	}

	for _, name := range b.names {
		e.attributes[name] = cloneAttributeValue(b.attributes[name])
	}

	if len(b.contexts) > 0 {
		e.context = append([]string{}, b.contexts...)
	} else {
		e.context = types.CoreContextURL
	}

	return e, nil
}

type EntityDecoratorFunc func(b *Builder)

// New creates an entity from a set of decorators, i.e. NewBuilder followed by Build
func New(entityID, entityType string, decorators ...EntityDecoratorFunc) (*Entity, error) {
	b := NewBuilder(entityID, entityType)

	for _, decorator := range decorators {
		decorator(b)
	}

	return b.Build()
}

func Context(ctx []string) EntityDecoratorFunc {
	return func(b *Builder) {
		b.contexts = append([]string{}, ctx...)
	}
}

func DefaultContext() EntityDecoratorFunc {
	return Context([]string{types.CoreContextURL})
}

// A adds a built attribute to the entity
func A(attr types.Attribute) EntityDecoratorFunc {
	return func(b *Builder) {
		b.AddAttribute(attr)
	}
}
