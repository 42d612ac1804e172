package fiware

import (
	"fmt"
	"strings"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	dec "github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities/decorators"
)

const urnPrefix string = "urn:ngsi-ld:"

const (
	DeviceTypeName string = "Device"
	DeviceIDPrefix string = urnPrefix + DeviceTypeName + ":"

	WeatherObservedTypeName string = "WeatherObserved"
	WeatherObservedIDPrefix string = urnPrefix + WeatherObservedTypeName + ":"
)

// NewDevice creates a Device entity. The id is prefixed with DeviceIDPrefix unless
// it already is.
func NewDevice(entityID string, decorators ...entities.EntityDecoratorFunc) (*entities.Entity, error) {
	if len(decorators) == 0 {
		return nil, fmt.Errorf("at least one property must be set in a device entity")
	}

	return entities.New(withPrefix(entityID, DeviceIDPrefix), DeviceTypeName, decorators...)
}

func NewWeatherObserved(observationID string, latitude, longitude float64, observedAt string, decorators ...entities.EntityDecoratorFunc) (*entities.Entity, error) {
	if len(decorators) == 0 {
		return nil, fmt.Errorf("at least one property must be set in a weatherobserved entity")
	}

	decorators = append(decorators, dec.DateObserved(observedAt), dec.Location(latitude, longitude))

	return entities.New(withPrefix(observationID, WeatherObservedIDPrefix), WeatherObservedTypeName, decorators...)
}

func withPrefix(id, prefix string) string {
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}
