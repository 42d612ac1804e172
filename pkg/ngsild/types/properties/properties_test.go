package properties

import (
	"testing"
	"time"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/matryer/is"
)

func TestBuildProperty(t *testing.T) {
	is := is.New(t)

	observedAt := time.Date(2024, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))

	p := NewBuilder("temperature").
		WithValue(31.0).
		WithObservedAt(&observedAt).
		WithUnitCode("CEL").
		WithDatasetID(types.DefaultDatasetID("temperature")).
		WithSubProperty("reliability", 0.98).
		Build()

	is.Equal(p.Name(), "temperature")
	is.Equal(p.Type(), types.PropertyType)

	contents := p.Contents()
	is.Equal(len(contents), 6)
	is.Equal(contents["value"], 31.0)
	is.Equal(contents["observedAt"], "2024-03-01T12:00:00Z")
	is.Equal(contents["unitCode"], "CEL")
	is.Equal(contents["datasetId"], "urn:ngsi-ld:Dataset:temperature")
	is.Equal(contents["reliability"], map[string]any{"type": "Property", "value": 0.98})
	is.Equal(p.DatasetID().String(), "urn:ngsi-ld:Dataset:temperature")
}

func TestEmptyInputsLeaveFieldsUnset(t *testing.T) {
	is := is.New(t)

	p := NewBuilder("temperature").
		WithValue(nil).
		WithObservedAt(nil).
		WithUnitCode("").
		WithDatasetID(nil).
		WithSubProperty("reliability", nil).
		Build()

	is.Equal(p.Contents(), map[string]any{"type": "Property"})
	is.True(p.DatasetID() == nil)

	b, err := p.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"type":"Property"}`)
}

func TestBuilderCanBeReused(t *testing.T) {
	is := is.New(t)

	b := NewBuilder("temperature").WithValue(10)
	first := b.Build()
	second := b.WithValue(20).Build()

	is.Equal(first.Contents()["value"], 10)
	is.Equal(second.Contents()["value"], 20)
}

func TestPropertyDecorators(t *testing.T) {
	is := is.New(t)

	p := NewNumberProperty("waterConsumption", 100,
		ObservedAt("2006-01-02T15:04:05Z"),
		ObservedBy("urn:ngsi-ld:Device:some_device"),
		UnitCode("LTR"),
	)

	b, err := p.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"observedAt":"2006-01-02T15:04:05Z","observedBy":{"object":"urn:ngsi-ld:Device:some_device","type":"Relationship"},"type":"Property","unitCode":"LTR","value":100}`)
}

func TestDateTimeProperty(t *testing.T) {
	is := is.New(t)

	p := NewDateTimeProperty(DateObserved, "2021-12-17T16:34:33Z")

	b, err := p.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"type":"Property","value":{"@type":"DateTime","@value":"2021-12-17T16:34:33Z"}}`)
}

func TestNewReturnsBareInstance(t *testing.T) {
	is := is.New(t)
	is.Equal(New("x"), map[string]any{"type": "Property", "value": "x"})
}
