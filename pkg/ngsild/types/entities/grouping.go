package entities

import (
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
)

// Fragment is a set of attributes keyed by name, ready to be sent as a request body.
// Names with a single instance map to that instance, names with several instances
// map to the list of instances.
type Fragment struct {
	names      []string
	attributes map[string]any
}

// GroupByProperty groups attribute instances by name, keeping the first-seen order
// of the names and the relative order of the instances within each name
func GroupByProperty(attrs ...types.Attribute) Fragment {
	return group(attrs, false)
}

// GroupTemporalInstances groups attribute instances by name like GroupByProperty, but
// always maps a name to a list of instances as expected by the temporal api
func GroupTemporalInstances(attrs ...types.Attribute) Fragment {
	return group(attrs, true)
}

func group(attrs []types.Attribute, alwaysList bool) Fragment {
	names := []string{}
	grouped := map[string][]map[string]any{}

	for _, attr := range attrs {
		name := attr.Name()
		if _, seen := grouped[name]; !seen {
			names = append(names, name)
		}
		grouped[name] = append(grouped[name], attr.Contents())
	}

	f := Fragment{
		names:      names,
		attributes: make(map[string]any, len(names)),
	}

	for _, name := range names {
		instances := grouped[name]
		if len(instances) == 1 && !alwaysList {
			f.attributes[name] = instances[0]
		} else {
			f.attributes[name] = instances
		}
	}

	return f
}

func (f Fragment) Len() int {
	return len(f.names)
}

func (f Fragment) Names() []string {
	return append([]string{}, f.names...)
}

func (f Fragment) Get(name string) (any, bool) {
	v, ok := f.attributes[name]
	if !ok {
		return nil, false
	}
	return cloneAttributeValue(v), true
}

// Map returns the grouped mapping
func (f Fragment) Map() map[string]any {
	m := make(map[string]any, len(f.names))
	for _, name := range f.names {
		m[name] = cloneAttributeValue(f.attributes[name])
	}
	return m
}

func (f Fragment) MarshalJSON() ([]byte, error) {
	fields := make([]field, 0, len(f.names))
	for _, name := range f.names {
		fields = append(fields, field{name, f.attributes[name]})
	}
	return marshalOrdered(fields)
}

// Serialize groups the attributes and returns the JSON text of the resulting fragment
func Serialize(attrs ...types.Attribute) (string, error) {
	b, err := GroupByProperty(attrs...).MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
