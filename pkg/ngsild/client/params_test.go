package client

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestRequestDecoratorsProduceQueryStrings(t *testing.T) {
	is := is.New(t)

	timeAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	endTimeAt := timeAt.Add(24 * time.Hour)
	stockholm := time.FixedZone("CET", 3600)

	testCases := []struct {
		name     string
		params   []RequestDecoratorFunc
		expected string
	}{
		{"near point", []RequestDecoratorFunc{NearPoint(500, 62.39, 17.3)},
			"?georel=near%3BmaxDistance%3D%3D500&geometry=Point&coordinates=%5B17.300000%2C62.390000%5D"},
		{"after in utc", []RequestDecoratorFunc{After(time.Date(2024, 3, 1, 13, 0, 0, 0, stockholm))},
			"?timerel=after&timeAt=2024-03-01T12%3A00%3A00Z"},
		{"before", []RequestDecoratorFunc{Before(timeAt)},
			"?timerel=before&timeAt=2024-03-01T12%3A00%3A00Z"},
		{"between", []RequestDecoratorFunc{Between(timeAt, endTimeAt)},
			"?timerel=between&timeAt=2024-03-01T12%3A00%3A00Z&endTimeAt=2024-03-02T12%3A00%3A00Z"},
		{"ids", []RequestDecoratorFunc{IDs([]string{"urn:ngsi-ld:Building:01", "urn:ngsi-ld:Building:02"})},
			"?id=urn%3Angsi-ld%3ABuilding%3A01%2Curn%3Angsi-ld%3ABuilding%3A02"},
		{"minutes", []RequestDecoratorFunc{Aggregation([]AggregationMethod{AggregatedAverage}, Minutes(15))},
			"?options=aggregatedValues&aggrMethods=avg&aggrPeriodDuration=PT15M"},
		{"days hours and minutes", []RequestDecoratorFunc{Aggregation([]AggregationMethod{AggregatedAverage, AggregatedMax}, Days(1), Hours(2), Minutes(30))},
			"?options=aggregatedValues&aggrMethods=avg%2Cmax&aggrPeriodDuration=P1DT2H30M"},
		{"paging", []RequestDecoratorFunc{Attributes([]string{"name", "height"}), Limit(10), Offset(20), LastN(5)},
			"?attrs=name%2Cheight&limit=10&offset=20&lastN=5"},
	}

	for _, tc := range testCases {
		is.Equal(buildQueryString(tc.params...), tc.expected) // unexpected query string
	}
}
