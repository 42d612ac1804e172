package subscriptions

import (
	"fmt"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/google/uuid"
)

type EntityInfo struct {
	ID        string `json:"id,omitempty"`
	IDPattern string `json:"idPattern,omitempty"`
	Type      string `json:"type"`
}

type Endpoint struct {
	URI    string `json:"uri"`
	Accept string `json:"accept,omitempty"`
}

type NotificationParams struct {
	Attributes []string `json:"attributes,omitempty"`
	Format     string   `json:"format,omitempty"`
	Endpoint   Endpoint `json:"endpoint"`
}

// Subscription is the payload sent to a broker when creating a subscription
type Subscription struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	Name              string             `json:"subscriptionName,omitempty"`
	Description       string             `json:"description,omitempty"`
	Entities          []EntityInfo       `json:"entities,omitempty"`
	WatchedAttributes []string           `json:"watchedAttributes,omitempty"`
	Q                 string             `json:"q,omitempty"`
	Notification      NotificationParams `json:"notification"`
	Context           any                `json:"@context,omitempty"`
}

type SubscriptionDecoratorFunc func(s *Subscription)

// New creates a subscription with a generated id that notifies endpoint
func New(endpoint string, decorators ...SubscriptionDecoratorFunc) *Subscription {
	s := &Subscription{
		ID:   fmt.Sprintf("urn:ngsi-ld:Subscription:%s", uuid.New().String()),
		Type: "Subscription",
		Notification: NotificationParams{
			Format:   "normalized",
			Endpoint: Endpoint{URI: endpoint, Accept: "application/json"},
		},
		Context: types.CoreContextURL,
	}

	for _, decorator := range decorators {
		decorator(s)
	}

	return s
}

func ID(id string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.ID = id
	}
}

func Name(name string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Name = name
	}
}

func Description(description string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Description = description
	}
}

func EntityType(entityType string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Entities = append(s.Entities, EntityInfo{Type: entityType})
	}
}

func Entities(entities ...EntityInfo) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Entities = append(s.Entities, entities...)
	}
}

func WatchedAttributes(attributes ...string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.WatchedAttributes = append(s.WatchedAttributes, attributes...)
	}
}

func Query(q string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Q = q
	}
}

func NotifyAttributes(attributes ...string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Notification.Attributes = append(s.Notification.Attributes, attributes...)
	}
}

func Format(format string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Notification.Format = format
	}
}

func Accept(contentType string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		s.Notification.Endpoint.Accept = contentType
	}
}

func Context(ctx []string) SubscriptionDecoratorFunc {
	return func(s *Subscription) {
		if len(ctx) > 0 {
			s.Context = append([]string{}, ctx...)
		}
	}
}
