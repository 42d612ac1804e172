package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/auth"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/matryer/is"
)

func TestLoadBrokerAndAuth(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(config.Broker.URL, "http://lolcathost:8080")
	is.Equal(config.Broker.Tenant, "kommunen")
	is.Equal(config.Broker.RequestHeaders()["X-Request-Source"], []string{"cli"})

	authCfg := config.Auth.TokenProviderConfig()
	is.Equal(authCfg.Mode, auth.ClientCredentials)
	is.Equal(authCfg.Credentials.ClientID, "cli")
	is.Equal(authCfg.Credentials.ServerURL, "http://lolcathost:9999/token")
}

func TestLoadEntity(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(len(config.Entities), 2) // should find two entities

	e, err := config.Entities[0].Entity()
	is.NoErr(err)

	is.Equal(e.ID(), "urn:ngsi-ld:WeatherObserved:01")
	is.Equal(e.AttributeNames(), []string{"temperature", "location", "refDevice"})
	is.Equal(len(e.Instances("temperature")), 2) // should have a default and a dataset instance
	is.True(e.HasAttribute("temperature", types.DefaultDatasetID("backup")))

	location, ok := e.GetAttribute("location", nil)
	is.True(ok)
	b, err := json.Marshal(location)
	is.NoErr(err)
	is.Equal(string(b), `{"type":"Property","value":{"coordinates":[17.3,62.39],"type":"Point"}}`)

	device, ok := e.GetRelationshipObject("refDevice")
	is.True(ok)
	is.Equal(device.String(), "urn:ngsi-ld:Device:01")
}

func TestLoadInvalidEntity(t *testing.T) {
	is, config := setupConfigTest(t)

	_, err := config.Entities[1].Entity()
	is.True(err != nil) // observedAt is not a valid timestamp
}

func TestLoadSubscription(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(len(config.Subscriptions), 1)

	s := config.Subscriptions[0].Subscription()
	is.Equal(s.ID, "urn:ngsi-ld:Subscription:temperature")
	is.Equal(s.Notification.Endpoint.URI, "http://lolcathost:7777/notify")
	is.Equal(s.WatchedAttributes, []string{"temperature"})
	is.Equal(s.Entities[0].Type, "WeatherObserved")
}

func setupConfigTest(t *testing.T) (*is.I, *Config) {
	is := is.New(t)
	cfgData := bytes.NewBuffer([]byte(configFile))
	config, err := LoadConfiguration(cfgData)
	is.NoErr(err)

	return is, config
}

var configFile string = `
broker:
  url: http://lolcathost:8080
  tenant: kommunen
  headers:
  - name: X-Request-Source
    value: cli
auth:
  mode: client_credentials
  serverUrl: http://lolcathost:9999/token
  clientId: cli
  clientSecret: secret
entities:
  - id: urn:ngsi-ld:WeatherObserved:01
    type: WeatherObserved
    properties:
    - name: temperature
      value: 17.2
      unitCode: CEL
      observedAt: "2024-03-01T12:00:00Z"
    - name: temperature
      value: 17.4
      datasetId: urn:ngsi-ld:Dataset:backup
    - name: location
      value:
        type: Point
        coordinates: [17.3, 62.39]
    relationships:
    - name: refDevice
      object: urn:ngsi-ld:Device:01
  - id: urn:ngsi-ld:WeatherObserved:02
    type: WeatherObserved
    properties:
    - name: temperature
      value: 3
      observedAt: yesterday
subscriptions:
  - id: urn:ngsi-ld:Subscription:temperature
    entityType: WeatherObserved
    watchedAttributes: [temperature]
    endpoint: http://lolcathost:7777/notify
`
