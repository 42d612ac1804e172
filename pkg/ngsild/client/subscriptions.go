package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild"
	ngsierrors "github.com/diwise/ngsi-ld-client/pkg/ngsild/errors"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/subscriptions"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const TraceAttributeSubscriptionID string = "subscription-id"

func (c cbClient) CreateSubscription(ctx context.Context, subscription *subscriptions.Subscription, headers map[string][]string) (*ngsild.CreateSubscriptionResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "create-subscription",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeSubscriptionID, subscription.ID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := json.Marshal(subscription)
	if err != nil {
		err = fmt.Errorf("failed to marshal subscription: %w", err)
		return nil, err
	}

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodPost, c.baseURL+"/ngsi-ld/v1/subscriptions", bytes.NewBuffer(b),
		contentType(ContentTypeJSONLD), headers,
	)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusConflict {
		if c.tolerateExistingSubscriptions {
			logging.GetFromContext(ctx).Info("subscription already exists", "subscriptionID", subscription.ID)
			return ngsild.NewCreateSubscriptionResult("/ngsi-ld/v1/subscriptions/"+subscription.ID, true), nil
		}

		err = ngsierrors.NewAlreadyExistsError("Subscription already exists")
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated {
		err = ngsierrors.NewContextBrokerError("create subscription", resp.StatusCode, respBody)
		return nil, err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		location = "/ngsi-ld/v1/subscriptions/" + subscription.ID
	}

	return ngsild.NewCreateSubscriptionResult(location, false), nil
}
