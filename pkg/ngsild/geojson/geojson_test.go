package geojson

import (
	"encoding/json"
	"testing"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	dec "github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities/decorators"
	"github.com/matryer/is"
)

func TestConvertEntityWithLocation(t *testing.T) {
	is := is.New(t)

	e, err := entities.New("urn:ngsi-ld:Beach:01", "Beach", dec.Name("Sandy"), dec.Location(62.39, 17.30))
	is.NoErr(err)

	f, err := ConvertEntity(e)
	is.NoErr(err)

	b, err := json.Marshal(f)
	is.NoErr(err)
	is.Equal(string(b), `{"id":"urn:ngsi-ld:Beach:01","type":"Feature",`+
		`"geometry":{"coordinates":[17.3,62.39],"type":"Point"},`+
		`"properties":{"location":{"type":"GeoProperty","value":{"coordinates":[17.3,62.39],"type":"Point"}},`+
		`"name":{"type":"Property","value":"Sandy"},"type":"Beach"}}`)
}

func TestFeatureCollectionWithoutGeometry(t *testing.T) {
	is := is.New(t)

	e, err := entities.New("urn:ngsi-ld:Device:01", "Device", dec.Status("on"))
	is.NoErr(err)

	fc := NewFeatureCollection()
	is.NoErr(fc.Add(e))

	b, err := json.Marshal(fc)
	is.NoErr(err)
	is.Equal(string(b), `{"type":"FeatureCollection","features":[{"id":"urn:ngsi-ld:Device:01","type":"Feature","geometry":null,`+
		`"properties":{"status":{"type":"Property","value":"on"},"type":"Device"}}]}`)
}
