package relationships

import (
	"testing"
	"time"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/matryer/is"
)

func TestBuildRelationship(t *testing.T) {
	is := is.New(t)

	observedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r := NewBuilder("refDevice").
		WithObject("urn:ngsi-ld:Device:01").
		WithObservedAt(&observedAt).
		WithDatasetID(types.DefaultDatasetID("primary")).
		Build()

	is.Equal(r.Name(), "refDevice")
	is.Equal(r.Type(), types.RelationshipType)

	b, err := r.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"datasetId":"urn:ngsi-ld:Dataset:primary","object":"urn:ngsi-ld:Device:01","observedAt":"2024-03-01T12:00:00Z","type":"Relationship"}`)
}

func TestMultiObjectRelationship(t *testing.T) {
	is := is.New(t)

	r := NewMultiObjectRelationship("refSeeAlso", []string{"urn:a", "urn:b"})

	b, err := r.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"object":["urn:a","urn:b"],"type":"Relationship"}`)
}

func TestEmptyObjectIsLeftUnset(t *testing.T) {
	is := is.New(t)

	r := NewSingleObjectRelationship("refDevice", "")
	is.Equal(r.Contents(), map[string]any{"type": "Relationship"})
}
