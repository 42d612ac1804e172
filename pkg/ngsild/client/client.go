package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/auth"
	ngsierrors "github.com/diwise/ngsi-ld-client/pkg/ngsild/errors"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/subscriptions"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ContextBrokerClient interface {
	CreateEntity(ctx context.Context, entity *entities.Entity, headers map[string][]string) (*ngsild.CreateEntityResult, error)
	QueryEntities(ctx context.Context, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.QueryEntitiesResult, error)
	RetrieveEntity(ctx context.Context, entityID string, headers map[string][]string, parameters ...RequestDecoratorFunc) (*entities.Entity, error)
	UpdateEntityAttributes(ctx context.Context, entityID string, fragment entities.Fragment, headers map[string][]string) error
	AppendEntityAttributes(ctx context.Context, entityID string, attributes []types.Attribute, headers map[string][]string) error
	PartialAttributeUpdate(ctx context.Context, entityID, attributeName string, attr types.Attribute, headers map[string][]string) error
	DeleteEntity(ctx context.Context, entityID string, headers map[string][]string) (*ngsild.DeleteEntityResult, error)

	BatchCreate(ctx context.Context, batch []*entities.Entity, headers map[string][]string) (*ngsild.BatchOperationResult, error)
	BatchUpsert(ctx context.Context, batch []*entities.Entity, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.BatchOperationResult, error)
	BatchDelete(ctx context.Context, entityIDs []string, headers map[string][]string) (*ngsild.BatchOperationResult, error)

	CreateSubscription(ctx context.Context, subscription *subscriptions.Subscription, headers map[string][]string) (*ngsild.CreateSubscriptionResult, error)

	AddTemporalAttributes(ctx context.Context, entityID string, attributes []types.Attribute, headers map[string][]string) error
	RetrieveTemporalEvolutionOfEntity(ctx context.Context, entityID string, headers map[string][]string, parameters ...RequestDecoratorFunc) (*entities.Entity, error)
}

const (
	ContentTypeJSON   string = "application/json"
	ContentTypeJSONLD string = "application/ld+json"

	DefaultTenant string = "urn:ngsi-ld:tenant:default"
	TenantHeader  string = "NGSILD-Tenant"
)

func Debug(enabled string) func(*cbClient) {
	return func(c *cbClient) {
		c.debug = (enabled == "true")
	}
}

func Tenant(tenant string) func(*cbClient) {
	return func(c *cbClient) {
		if tenant != "" {
			c.tenant = tenant
		}
	}
}

func WithTokenProvider(tp auth.TokenProvider) func(*cbClient) {
	return func(c *cbClient) {
		c.tokenProvider = tp
	}
}

func HTTPClient(httpClient *http.Client) func(*cbClient) {
	return func(c *cbClient) {
		c.httpClient = httpClient
	}
}

// LinkContext sets the context url sent in the Link header of requests that carry one
func LinkContext(contextURL string) func(*cbClient) {
	return func(c *cbClient) {
		c.linkContext = contextURL
	}
}

// TolerateExistingSubscriptions makes CreateSubscription report a conflict as a
// successful result with AlreadyExisted set
func TolerateExistingSubscriptions() func(*cbClient) {
	return func(c *cbClient) {
		c.tolerateExistingSubscriptions = true
	}
}

func NewContextBrokerClient(broker string, options ...func(*cbClient)) ContextBrokerClient {
	noAuth, _ := auth.New(auth.Config{Mode: auth.None})

	c := &cbClient{
		baseURL:       strings.TrimSuffix(broker, "/"),
		tenant:        DefaultTenant,
		linkContext:   types.CoreContextURL,
		tokenProvider: noAuth,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const (
	TraceAttributeEntityID     string = "entity-id"
	TraceAttributeNGSILDTenant string = "ngsild-tenant"
)

var tracer = otel.Tracer("ngsi-ld-client")

type cbClient struct {
	baseURL     string
	tenant      string
	linkContext string
	debug       bool

	tolerateExistingSubscriptions bool

	tokenProvider auth.TokenProvider
	httpClient    *http.Client
}

func (c cbClient) CreateEntity(ctx context.Context, entity *entities.Entity, headers map[string][]string) (*ngsild.CreateEntityResult, error) {
	var err error

	entityID := entity.ID()

	ctx, span := tracer.Start(ctx, "create-entity",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := entity.MarshalJSON()
	if err != nil {
		err = fmt.Errorf("failed to marshal entity %s: %w", entityID, err)
		return nil, err
	}

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodPost, c.baseURL+"/ngsi-ld/v1/entities", bytes.NewBuffer(b),
		contentType(ContentTypeJSONLD), headers,
	)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusConflict {
		err = ngsierrors.NewAlreadyExistsError("Entity already exists")
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated {
		err = ngsierrors.NewContextBrokerError("create entity", resp.StatusCode, respBody)
		return nil, err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		logging.GetFromContext(ctx).Warn("context broker failed to provide a location header with created response", "entityID", entityID)
		location = "/ngsi-ld/v1/entities/" + url.PathEscape(entityID)
	}

	return ngsild.NewCreateEntityResult(location), nil
}

func (c cbClient) QueryEntities(ctx context.Context, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.QueryEntitiesResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-entities",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodGet, c.baseURL+"/ngsi-ld/v1/entities"+buildQueryString(parameters...), nil,
		c.acceptWithLink(ContentTypeJSONLD), headers,
	)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		err = ngsierrors.NewContextBrokerError("query entities", resp.StatusCode, respBody)
		return nil, err
	}

	found, err := entities.NewFromSlice(respBody)
	if err != nil {
		if c.debug && len(respBody) < 1000 {
			err = fmt.Errorf("unmarshaling of %s failed with err %w", string(respBody), err)
		}
		err = ngsierrors.NewContextBrokerRequestError("query entities", err)
		return nil, err
	}

	qer := ngsild.NewQueryEntitiesResult(found)
	if totalCount, ok := extractNGSILDResultsCount(resp); ok {
		qer.TotalCount = totalCount
	}

	return qer, nil
}

func (c cbClient) RetrieveEntity(ctx context.Context, entityID string, headers map[string][]string, parameters ...RequestDecoratorFunc) (*entities.Entity, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-entity",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodGet, c.entityURL(entityID)+buildQueryString(parameters...), nil,
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
		err = ngsierrors.NewContextBrokerError("retrieve entity", resp.StatusCode, respBody)
		return nil, err
	}

	e, err := entities.NewFromJSON(respBody)
	if err != nil {
		err = ngsierrors.NewContextBrokerRequestError("retrieve entity", err)
		return nil, err
	}

	return e, nil
}

func (c cbClient) UpdateEntityAttributes(ctx context.Context, entityID string, fragment entities.Fragment, headers map[string][]string) error {
	var err error

	ctx, span := tracer.Start(ctx, "update-entity-attributes",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := fragment.MarshalJSON()
	if err != nil {
		err = fmt.Errorf("failed to marshal attributes: %w", err)
		return err
	}

	err = c.sendAttributes(ctx, "update entity attributes", http.MethodPatch, c.entityURL(entityID)+"/attrs", b, headers)
	return err
}

// AppendEntityAttributes groups the attribute instances by name and appends them to the entity.
// An empty list of attributes is reported as a success without contacting the broker.
func (c cbClient) AppendEntityAttributes(ctx context.Context, entityID string, attributes []types.Attribute, headers map[string][]string) error {
	var err error

	if len(attributes) == 0 {
		logging.GetFromContext(ctx).Info("empty list of attributes received, nothing to append", "entityID", entityID)
		return nil
	}

	ctx, span := tracer.Start(ctx, "append-entity-attributes",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := entities.GroupByProperty(attributes...).MarshalJSON()
	if err != nil {
		err = fmt.Errorf("failed to marshal attributes: %w", err)
		return err
	}

	err = c.sendAttributes(ctx, "append entity attributes", http.MethodPost, c.entityURL(entityID)+"/attrs", b, headers)
	return err
}

// PartialAttributeUpdate replaces the fields of a single attribute. The attribute type is
// not part of the payload.
func (c cbClient) PartialAttributeUpdate(ctx context.Context, entityID, attributeName string, attr types.Attribute, headers map[string][]string) error {
	var err error

	ctx, span := tracer.Start(ctx, "partial-attribute-update",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := attr.MarshalJSON()
	if err != nil {
		err = fmt.Errorf("failed to marshal attribute %s: %w", attributeName, err)
		return err
	}

	b, err = sjson.DeleteBytes(b, "type")
	if err != nil {
		err = fmt.Errorf("failed to remove type from attribute %s: %w", attributeName, err)
		return err
	}

	endpoint := c.entityURL(entityID) + "/attrs/" + url.PathEscape(attributeName)
	err = c.sendAttributes(ctx, "update attribute "+attributeName, http.MethodPatch, endpoint, b, headers)
	return err
}

func (c cbClient) sendAttributes(ctx context.Context, operation, method, endpoint string, body []byte, headers map[string][]string) error {
	resp, respBody, err := c.callContextSource(
		ctx, method, endpoint, bytes.NewBuffer(body),
		c.jsonWithLink(), headers,
	)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusNoContent {
		return ngsierrors.NewContextBrokerError(operation, resp.StatusCode, respBody)
	}

	return nil
}

func (c cbClient) DeleteEntity(ctx context.Context, entityID string, headers map[string][]string) (*ngsild.DeleteEntityResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "delete-entity",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodDelete, c.entityURL(entityID), nil, nil, headers,
	)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		err = ngsierrors.NewNotFoundError("Entity not found")
		return nil, err
	}

	if resp.StatusCode != http.StatusNoContent {
		err = ngsierrors.NewContextBrokerError("delete entity", resp.StatusCode, respBody)
		return nil, err
	}

	return ngsild.NewDeleteEntityResult(), nil
}

func (c cbClient) entityURL(entityID string) string {
	return c.baseURL + "/ngsi-ld/v1/entities/" + url.PathEscape(entityID)
}

func (c cbClient) callContextSource(ctx context.Context, method, endpoint string, body io.Reader, defaults http.Header, headers map[string][]string) (*http.Response, []byte, error) {
	log := logging.GetFromContext(ctx)

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, nil, classifyTokenError(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, ngsierrors.NewContextBrokerRequestError("create request", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	if c.tenant != DefaultTenant {
		req.Header.Set(TenantHeader, c.tenant)
	}

	for header, values := range defaults {
		for _, val := range values {
			req.Header.Add(header, val)
		}
	}

	for header, values := range headers {
		req.Header.Del(header)
		for _, val := range values {
			req.Header.Add(header, val)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("failed to send request to context broker", "method", method, "url", endpoint, "err", err.Error())
		return nil, nil, ngsierrors.NewContextBrokerRequestError("send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, ngsierrors.NewContextBrokerRequestError("read response body", err)
	}

	log.Debug("context broker responded", "method", method, "url", endpoint, "status", resp.StatusCode)

	if c.debug {
		if resp.StatusCode == http.StatusMultiStatus || resp.StatusCode >= http.StatusBadRequest {
			if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
				reqbytes, _ := httputil.DumpRequest(req, false)
				respbytes, _ := httputil.DumpResponse(resp, false)

				if resp.StatusCode >= http.StatusBadRequest {
					log.Error("request failed", "request", string(reqbytes), "response", string(respbytes), "body", string(respBody))
				} else {
					log.Warn("unexpected response", "request", string(reqbytes), "response", string(respbytes), "body", string(respBody))
				}
			}
		}
	}

	return resp, respBody, nil
}

// classifyTokenError keeps errors from the token provider within the authentication part of the error taxonomy
func classifyTokenError(err error) error {
	if errors.Is(err, ngsierrors.ErrAccessTokenNotRetrieved) ||
		errors.Is(err, ngsierrors.ErrAuthenticationServer) ||
		errors.Is(err, ngsierrors.ErrConfiguration) {
		return err
	}
	return ngsierrors.NewAuthenticationServerError(err.Error(), err)
}

func contentType(ct string) http.Header {
	return http.Header{"Content-Type": {ct}}
}

func (c cbClient) acceptWithLink(accept string) http.Header {
	return http.Header{
		"Accept": {accept},
		"Link":   {LinkHeader(c.linkContext)},
	}
}

func (c cbClient) jsonWithLink() http.Header {
	h := c.acceptWithLink(ContentTypeJSON)
	h.Set("Content-Type", ContentTypeJSON)
	return h
}

func extractNGSILDResultsCount(r *http.Response) (int64, bool) {
	val, ok := r.Header[http.CanonicalHeaderKey("NGSILD-Results-Count")]
	if !ok || len(val) == 0 {
		return -1, false
	}

	count, err := strconv.ParseInt(val[0], 10, 64)
	if err != nil {
		return -1, false
	}

	return count, true
}

func marshalBatch(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}
	return b, nil
}
