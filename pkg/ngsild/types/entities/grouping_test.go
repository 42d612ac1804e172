package entities

import (
	"testing"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/properties"
	"github.com/matryer/is"
)

func TestSingleInstanceIsGroupedAsAnObject(t *testing.T) {
	is := is.New(t)

	fragment := GroupByProperty(properties.NewNumberProperty("temperature", 21))

	v, ok := fragment.Get("temperature")
	is.True(ok)
	_, isMap := v.(map[string]any)
	is.True(isMap)

	s, err := Serialize(properties.NewNumberProperty("temperature", 21))
	is.NoErr(err)
	is.Equal(s, `{"temperature":{"type":"Property","value":21}}`)
}

func TestInstancesWithDatasetIDsAreGroupedInOrder(t *testing.T) {
	is := is.New(t)

	first := properties.NewBuilder("temperature").WithValue(21).WithDatasetID(types.DefaultDatasetID("b")).Build()
	second := properties.NewBuilder("temperature").WithValue(19).WithDatasetID(types.DefaultDatasetID("a")).Build()

	fragment := GroupByProperty(first, second)
	is.Equal(fragment.Len(), 1)

	v, _ := fragment.Get("temperature")
	instances, ok := v.([]map[string]any)
	is.True(ok)
	is.Equal(len(instances), 2)
	is.Equal(instances[0]["datasetId"], "urn:ngsi-ld:Dataset:b")
	is.Equal(instances[1]["datasetId"], "urn:ngsi-ld:Dataset:a")

	b, err := fragment.MarshalJSON()
	is.NoErr(err)

	s, err := Serialize(first, second)
	is.NoErr(err)
	is.Equal(string(b), s)
	is.Equal(s, `{"temperature":[{"datasetId":"urn:ngsi-ld:Dataset:b","type":"Property","value":21},{"datasetId":"urn:ngsi-ld:Dataset:a","type":"Property","value":19}]}`)
}

func TestGroupingKeepsFirstSeenOrderOfNames(t *testing.T) {
	is := is.New(t)

	fragment := GroupByProperty(
		properties.NewTextProperty("b", "1"),
		properties.NewTextProperty("a", "2"),
		properties.NewTextProperty("b", "3"),
		properties.NewTextProperty("c", "4"),
	)

	is.Equal(fragment.Names(), []string{"b", "a", "c"})
	is.Equal(len(fragment.Map()), 3)
}

func TestGroupingNothingGivesAnEmptyFragment(t *testing.T) {
	is := is.New(t)

	fragment := GroupByProperty()
	is.Equal(fragment.Len(), 0)

	s, err := Serialize()
	is.NoErr(err)
	is.Equal(s, "{}")
}

func TestTemporalInstancesAreAlwaysLists(t *testing.T) {
	is := is.New(t)

	fragment := GroupTemporalInstances(properties.NewNumberProperty("temperature", 21))

	b, err := fragment.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"temperature":[{"type":"Property","value":21}]}`)
}
