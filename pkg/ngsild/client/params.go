package client

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

type RequestDecoratorFunc func([]string) []string

const jsonldContextRel string = "http://www.w3.org/ns/json-ld#context"

// LinkHeader returns the value of a Link header referencing a JSON-LD context
func LinkHeader(contextURL string) string {
	return fmt.Sprintf("<%s>; rel=\"%s\"; type=\"%s\"", contextURL, jsonldContextRel, ContentTypeJSONLD)
}

func buildQueryString(parameters ...RequestDecoratorFunc) string {
	params := make([]string, 0, 5)
	for _, rdf := range parameters {
		params = rdf(params)
	}

	if len(params) == 0 {
		return ""
	}

	return "?" + strings.Join(params, "&")
}

func param(key, value string) string {
	return url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

func Param(key, value string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param(key, value))
	}
}

// Params adds every key and value of the map, sorted by key
func Params(values map[string]string) RequestDecoratorFunc {
	return func(params []string) []string {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			params = append(params, param(k, values[k]))
		}
		return params
	}
}

type AggregationMethod string

const (
	AggregatedAverage       AggregationMethod = "avg"
	AggregatedDistinctCount AggregationMethod = "distinctCount"
	AggregatedMax           AggregationMethod = "max"
	AggregatedMin           AggregationMethod = "min"
	AggregatedStdDev        AggregationMethod = "stddev"
	AggregatedSum           AggregationMethod = "sum"
	AggregatedSumOfSquares  AggregationMethod = "sumsq"
	AggregatedTotalCount    AggregationMethod = "totalCount"
)

type AggregationDurationDecoratorFunc func(string) string

func ByDay() AggregationDurationDecoratorFunc {
	return Days(1)
}

func ByHour() AggregationDurationDecoratorFunc {
	return Hours(1)
}

func Days(numberOfDays uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		return fmt.Sprintf("%s%dD", duration, numberOfDays)
	}
}

func Hours(numberOfHours uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		if !strings.Contains(duration, "T") {
			duration += "T"
		}

		return fmt.Sprintf("%s%dH", duration, numberOfHours)
	}
}

func Minutes(numberOfMinutes uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		if !strings.Contains(duration, "T") {
			duration += "T"
		}

		return fmt.Sprintf("%s%dM", duration, numberOfMinutes)
	}
}

// Aggregation requests aggregated temporal values, e.g. the hourly average with
// Aggregation([]AggregationMethod{AggregatedAverage}, ByHour())
func Aggregation(aggrMethods []AggregationMethod, decorators ...AggregationDurationDecoratorFunc) RequestDecoratorFunc {
	methods := make([]string, len(aggrMethods))
	for idx, m := range aggrMethods {
		methods[idx] = string(m)
	}

	duration := "P"
	for _, decorate := range decorators {
		duration = decorate(duration)
	}

	return func(params []string) []string {
		return append(params,
			param("options", "aggregatedValues"),
			param("aggrMethods", strings.Join(methods, ",")),
			param("aggrPeriodDuration", duration),
		)
	}
}

func Attributes(attrs []string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("attrs", strings.Join(attrs, ",")))
	}
}

func After(timeAt time.Time) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("timerel", "after"), param("timeAt", timeAt.UTC().Format(time.RFC3339)))
	}
}

func Before(timeAt time.Time) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("timerel", "before"), param("timeAt", timeAt.UTC().Format(time.RFC3339)))
	}
}

func Between(timeAt, endTimeAt time.Time) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params,
			param("timerel", "between"),
			param("timeAt", timeAt.UTC().Format(time.RFC3339)),
			param("endTimeAt", endTimeAt.UTC().Format(time.RFC3339)),
		)
	}
}

func IDs(ids []string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("id", strings.Join(ids, ",")))
	}
}

func LastN(count uint64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("lastN", strconv.FormatUint(count, 10)))
	}
}

func Limit(limit uint64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("limit", strconv.FormatUint(limit, 10)))
	}
}

func Offset(offset uint64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("offset", strconv.FormatUint(offset, 10)))
	}
}

func Options(options ...string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("options", strings.Join(options, ",")))
	}
}

func Query(q string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("q", q))
	}
}

func Types(typeNames []string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, param("type", strings.Join(typeNames, ",")))
	}
}

// NearPoint restricts a query to entities within distance meters of a point
func NearPoint(distance int, lat, lon float64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params,
			param("georel", fmt.Sprintf("near;maxDistance==%d", distance)),
			param("geometry", "Point"),
			param("coordinates", fmt.Sprintf("[%.6f,%.6f]", lon, lat)),
		)
	}
}
