package geojson

import (
	"fmt"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/properties"
)

const ContentType string = "application/geo+json"

type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
	Context  []string   `json:"@context,omitempty"`
}

func NewFeatureCollection(contexts ...string) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []*Feature{},
		Context:  contexts,
	}
}

type Feature struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Geometry   any            `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// ConvertEntity converts an entity into a GeoJSON feature. The value of the
// entity's location GeoProperty, if any, becomes the geometry of the feature.
// Only the first instance of a multi-instance attribute is kept.
func ConvertEntity(e *entities.Entity) (*Feature, error) {
	feature := &Feature{
		ID:   e.ID(),
		Type: "Feature",
		Properties: map[string]any{
			"type": e.Type(),
		},
	}

	err := e.ForEachAttribute(func(attributeType, attributeName string, contents any) {
		if _, exists := feature.Properties[attributeName]; !exists {
			feature.Properties[attributeName] = contents
		}

		if attributeType == types.GeoPropertyType && attributeName == properties.Location && feature.Geometry == nil {
			if instance, ok := contents.(map[string]any); ok {
				feature.Geometry = instance["value"]
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert entity %s: %w", e.ID(), err)
	}

	return feature, nil
}

func (fc *FeatureCollection) Add(e *entities.Entity) error {
	f, err := ConvertEntity(e)
	if err != nil {
		return err
	}

	fc.Features = append(fc.Features, f)
	return nil
}
