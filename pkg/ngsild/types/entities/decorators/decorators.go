package decorators

import (
	"net/url"
	"time"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/properties"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/relationships"
)

func RefDevice(device string) entities.EntityDecoratorFunc {
	return entities.A(relationships.NewSingleObjectRelationship("refDevice", device))
}

// Location adds a GeoProperty holding a GeoJSON point
func Location(latitude, longitude float64) entities.EntityDecoratorFunc {
	return entities.A(types.NewAttribute(properties.Location, map[string]any{
		"type": types.GeoPropertyType,
		"value": map[string]any{
			"type":        "Point",
			"coordinates": []float64{longitude, latitude},
		},
	}))
}

func DateTime(name string, value string) entities.EntityDecoratorFunc {
	return entities.A(properties.NewDateTimeProperty(name, value))
}

func Number(name string, value float64, decorators ...properties.PropertyDecoratorFunc) entities.EntityDecoratorFunc {
	return entities.A(properties.NewNumberProperty(name, value, decorators...))
}

func Text(name string, value string, decorators ...properties.PropertyDecoratorFunc) entities.EntityDecoratorFunc {
	return entities.A(properties.NewTextProperty(name, value, decorators...))
}

func TextList(name string, value []string) entities.EntityDecoratorFunc {
	return entities.A(properties.NewTextListProperty(name, value))
}

func DateLastValueReported(timestamp string) entities.EntityDecoratorFunc {
	return DateTime("dateLastValueReported", timestamp)
}

func DateObserved(timestamp string) entities.EntityDecoratorFunc {
	return DateTime(properties.DateObserved, timestamp)
}

func Name(name string) entities.EntityDecoratorFunc {
	return Text(properties.Name, name)
}

func Status(value string) entities.EntityDecoratorFunc {
	return Text("status", value)
}

func Temperature(t float64, decorators ...properties.PropertyDecoratorFunc) entities.EntityDecoratorFunc {
	return Number(properties.Temperature, t, append([]properties.PropertyDecoratorFunc{properties.UnitCode("CEL")}, decorators...)...)
}

// TemperatureInstance builds one temperature measurement, optionally as part of
// a multi-instance attribute identified by datasetID
func TemperatureInstance(t float64, observedAt time.Time, datasetID *url.URL) types.Attribute {
	return properties.NewBuilder(properties.Temperature).
		WithValue(t).
		WithUnitCode("CEL").
		WithObservedAt(&observedAt).
		WithDatasetID(datasetID).
		Build()
}
