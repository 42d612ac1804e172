package config

import (
	"fmt"
	"io"
	"time"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/auth"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/properties"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/relationships"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/subscriptions"
	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Broker        Broker         `yaml:"broker"`
	Auth          Auth           `yaml:"auth"`
	Entities      []Entity       `yaml:"entities"`
	Subscriptions []Subscription `yaml:"subscriptions"`
}

type Broker struct {
	URL     string   `yaml:"url"`
	Tenant  string   `yaml:"tenant"`
	Context string   `yaml:"context"`
	Debug   bool     `yaml:"debug"`
	Headers []Header `yaml:"headers"`
}

type Header struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type Auth struct {
	Mode         string `yaml:"mode"`
	Token        string `yaml:"token"`
	ServerURL    string `yaml:"serverUrl"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	GrantType    string `yaml:"grantType"`
}

type Entity struct {
	ID            string         `yaml:"id"`
	Type          string         `yaml:"type"`
	Context       []string       `yaml:"context"`
	Properties    []Property     `yaml:"properties"`
	Relationships []Relationship `yaml:"relationships"`
}

type Property struct {
	Name       string         `yaml:"name"`
	Value      any            `yaml:"value"`
	UnitCode   string         `yaml:"unitCode"`
	ObservedAt string         `yaml:"observedAt"`
	DatasetID  string         `yaml:"datasetId"`
	Sub        map[string]any `yaml:"subProperties"`
}

type Relationship struct {
	Name      string   `yaml:"name"`
	Object    string   `yaml:"object"`
	Objects   []string `yaml:"objects"`
	DatasetID string   `yaml:"datasetId"`
}

type Subscription struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Description       string   `yaml:"description"`
	EntityType        string   `yaml:"entityType"`
	WatchedAttributes []string `yaml:"watchedAttributes"`
	Query             string   `yaml:"q"`
	Endpoint          string   `yaml:"endpoint"`
	Format            string   `yaml:"format"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (a Auth) TokenProviderConfig() auth.Config {
	return auth.Config{
		Mode:  auth.Mode(a.Mode),
		Token: a.Token,
		Credentials: auth.Credentials{
			ServerURL:    a.ServerURL,
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			GrantType:    a.GrantType,
		},
	}
}

func (b Broker) RequestHeaders() map[string][]string {
	if len(b.Headers) == 0 {
		return nil
	}

	headers := map[string][]string{}
	for _, h := range b.Headers {
		headers[h.Name] = append(headers[h.Name], h.Value)
	}
	return headers
}

// Entity builds and validates the configured entity. Properties that share a
// name become a multi-instance attribute.
func (e Entity) Entity() (*entities.Entity, error) {
	attrs := make([]types.Attribute, 0, len(e.Properties)+len(e.Relationships))

	for _, p := range e.Properties {
		attr, err := p.attribute()
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.ID, err)
		}
		attrs = append(attrs, attr)
	}

	for _, r := range e.Relationships {
		attr, err := r.attribute()
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.ID, err)
		}
		attrs = append(attrs, attr)
	}

	b := entities.NewBuilder(e.ID, e.Type, e.Context...).
		AddFragment(entities.GroupByProperty(attrs...))

	return b.Build()
}

func (p Property) attribute() (types.Attribute, error) {
	b := properties.NewBuilder(p.Name).WithValue(normalize(p.Value))

	if p.UnitCode != "" {
		b.WithUnitCode(p.UnitCode)
	}

	if p.ObservedAt != "" {
		observedAt, err := time.Parse(time.RFC3339, p.ObservedAt)
		if err != nil {
			return types.Attribute{}, fmt.Errorf("property %s has an invalid observedAt: %w", p.Name, err)
		}
		b.WithObservedAt(&observedAt)
	}

	if p.DatasetID != "" {
		datasetID, err := types.ParseURI(p.DatasetID)
		if err != nil {
			return types.Attribute{}, fmt.Errorf("property %s has an invalid datasetId: %w", p.Name, err)
		}
		b.WithDatasetID(datasetID)
	}

	for name, value := range p.Sub {
		b.WithSubProperty(name, normalize(value))
	}

	return b.Build(), nil
}

func (r Relationship) attribute() (types.Attribute, error) {
	b := relationships.NewBuilder(r.Name)

	if len(r.Objects) > 0 {
		b.WithObjects(r.Objects)
	} else {
		b.WithObject(r.Object)
	}

	if r.DatasetID != "" {
		datasetID, err := types.ParseURI(r.DatasetID)
		if err != nil {
			return types.Attribute{}, fmt.Errorf("relationship %s has an invalid datasetId: %w", r.Name, err)
		}
		b.WithDatasetID(datasetID)
	}

	return b.Build(), nil
}

func (s Subscription) Subscription() *subscriptions.Subscription {
	decorators := []subscriptions.SubscriptionDecoratorFunc{}

	if s.ID != "" {
		decorators = append(decorators, subscriptions.ID(s.ID))
	}
	if s.Name != "" {
		decorators = append(decorators, subscriptions.Name(s.Name))
	}
	if s.Description != "" {
		decorators = append(decorators, subscriptions.Description(s.Description))
	}
	if s.EntityType != "" {
		decorators = append(decorators, subscriptions.EntityType(s.EntityType))
	}
	if len(s.WatchedAttributes) > 0 {
		decorators = append(decorators, subscriptions.WatchedAttributes(s.WatchedAttributes...))
	}
	if s.Query != "" {
		decorators = append(decorators, subscriptions.Query(s.Query))
	}
	if s.Format != "" {
		decorators = append(decorators, subscriptions.Format(s.Format))
	}

	return subscriptions.New(s.Endpoint, decorators...)
}

// yaml.v2 decodes mappings as map[any]any which can not be marshalled to json
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = normalize(val)
		}
		return s
	}
	return v
}
