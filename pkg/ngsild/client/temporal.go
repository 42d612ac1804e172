package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	ngsierrors "github.com/diwise/ngsi-ld-client/pkg/ngsild/errors"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AddTemporalAttributes adds attribute instances to the temporal representation of an entity.
// Instances are grouped by attribute name and every name maps to a list of instances.
func (c cbClient) AddTemporalAttributes(ctx context.Context, entityID string, attributes []types.Attribute, headers map[string][]string) error {
	var err error

	ctx, span := tracer.Start(ctx, "add-temporal-attributes",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := entities.GroupTemporalInstances(attributes...).MarshalJSON()
	if err != nil {
		err = fmt.Errorf("failed to marshal temporal attributes: %w", err)
		return err
	}

	logging.GetFromContext(ctx).Debug("appending temporal attributes", "entityID", entityID, "count", len(attributes))

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodPost, c.temporalEntityURL(entityID)+"/attrs", bytes.NewBuffer(b),
		c.jsonWithLink(), headers,
	)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusNoContent {
		err = ngsierrors.NewContextBrokerError("add temporal attributes", resp.StatusCode, respBody)
		return err
	}

	return nil
}

func (c cbClient) RetrieveTemporalEvolutionOfEntity(ctx context.Context, entityID string, headers map[string][]string, parameters ...RequestDecoratorFunc) (*entities.Entity, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-entity-temporal",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodGet, c.temporalEntityURL(entityID)+buildQueryString(parameters...), nil,
		c.acceptWithLink(ContentTypeJSONLD), headers,
	)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		err = ngsierrors.NewNotFoundError("Entity not found")
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		err = ngsierrors.NewContextBrokerError("retrieve temporal evolution of entity", resp.StatusCode, respBody)
		return nil, err
	}

	e, err := entities.NewFromJSON(respBody)
	if err != nil {
		err = ngsierrors.NewContextBrokerRequestError("retrieve temporal evolution of entity", err)
		return nil, err
	}

	return e, nil
}

func (c cbClient) temporalEntityURL(entityID string) string {
	return c.baseURL + "/ngsi-ld/v1/temporal/entities/" + url.PathEscape(entityID)
}
