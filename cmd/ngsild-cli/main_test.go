package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/diwise/ngsi-ld-client/internal/pkg/application/config"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/client"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/fatih/color"
	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var method = expects.RequestMethod
var path = expects.RequestPath

func header(name, value string) func(*is.I, *http.Request) {
	return func(is *is.I, r *http.Request) {
		is.Equal(r.Header.Get(name), value) // request header mismatch
	}
}

func TestGetEntityAsGeoJSON(t *testing.T) {
	is := is.New(t)

	ms := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/ngsi-ld/v1/entities/urn:ngsi-ld:Beach:01"),
		),
		Returns(
			response.ContentType("application/ld+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(beachJSON)),
		),
	)
	defer ms.Close()

	cfg, c := testClient(is, ms.URL(), FlagMap{})

	out := &bytes.Buffer{}
	err := run(context.Background(), c, cfg, FlagMap{outputFormat: "geojson"}, []string{"get", "urn:ngsi-ld:Beach:01"}, out)
	is.NoErr(err)

	is.Equal(out.String(), `{"type":"FeatureCollection","features":[{"id":"urn:ngsi-ld:Beach:01","type":"Feature",`+
		`"geometry":{"coordinates":[17.3,62.39],"type":"Point"},`+
		`"properties":{"location":{"type":"GeoProperty","value":{"coordinates":[17.3,62.39],"type":"Point"}},`+
		`"name":{"type":"Property","value":"Sandy"},"type":"Beach"}}]}`+"\n")
}

func TestUpsertConfiguredEntities(t *testing.T) {
	is := is.New(t)
	color.NoColor = true

	ms := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/ngsi-ld/v1/entityOperations/upsert"),
			header("NGSILD-Tenant", "kommunen"),
			header("X-Request-Source", "cli"),
		),
		Returns(response.Code(http.StatusNoContent)),
	)
	defer ms.Close()

	cfg, c := testClient(is, ms.URL(), FlagMap{tenant: "kommunen"})
	cfg.Broker.Headers = []config.Header{{Name: "X-Request-Source", Value: "cli"}}
	cfg.Entities = []config.Entity{{
		ID:         "urn:ngsi-ld:Beach:01",
		Type:       "Beach",
		Properties: []config.Property{{Name: "name", Value: "Sandy"}},
	}}

	out := &bytes.Buffer{}
	err := run(context.Background(), c, cfg, FlagMap{}, []string{"upsert"}, out)
	is.NoErr(err)

	is.Equal(ms.RequestCount(), 1)
	is.Equal(out.String(), "upserted 1 entities\n")
}

func TestUnknownCommand(t *testing.T) {
	is := is.New(t)

	cfg, c := testClient(is, "http://lolcathost:8080", FlagMap{})

	err := run(context.Background(), c, cfg, FlagMap{}, []string{"frobnicate"}, &bytes.Buffer{})
	is.True(err != nil)
}

func TestLoadConfigRequiresABrokerURL(t *testing.T) {
	is := is.New(t)

	_, err := loadConfig(FlagMap{})
	is.True(err != nil)

	cfg, err := loadConfig(FlagMap{brokerURL: "http://lolcathost:8080"})
	is.NoErr(err)
	is.Equal(cfg.Auth.Mode, "none")
}

func TestParseExternalConfig(t *testing.T) {
	is := is.New(t)
	t.Setenv("NGSI_TENANT", "kommunen")
	t.Setenv("NGSI_CB_URL", "http://from-env:8080")

	flags, args, err := parseExternalConfig(context.Background(), DefaultFlags(),
		[]string{"-broker", "http://lolcathost:8080", "-env", "does-not-exist.env", "get", "urn:ngsi-ld:Beach:01"})
	is.NoErr(err)

	is.Equal(args, []string{"get", "urn:ngsi-ld:Beach:01"})
	is.Equal(flags[brokerURL], "http://lolcathost:8080") // command line wins over the environment
	is.Equal(flags[tenant], "kommunen")
	is.Equal(flags[outputFormat], "json")
}

func testClient(is *is.I, url string, flags FlagMap) (*config.Config, client.ContextBrokerClient) {
	flags[brokerURL] = url

	cfg, err := loadConfig(flags)
	is.NoErr(err)

	c, err := newClient(cfg)
	is.NoErr(err)

	return cfg, c
}

const beachJSON string = `{
	"id": "urn:ngsi-ld:Beach:01",
	"type": "Beach",
	"name": {"type": "Property", "value": "Sandy"},
	"location": {"type": "GeoProperty", "value": {"type": "Point", "coordinates": [17.3, 62.39]}}
}`
