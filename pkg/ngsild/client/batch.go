package client

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild"
	ngsierrors "github.com/diwise/ngsi-ld-client/pkg/ngsild/errors"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const TraceAttributeBatchSize string = "batch-size"

var (
	batchCreateSuccessCodes = []int{http.StatusOK, http.StatusCreated}
	batchUpsertSuccessCodes = []int{http.StatusCreated, http.StatusNoContent}
	batchDeleteSuccessCodes = []int{http.StatusNoContent, http.StatusMultiStatus}
)

func (c cbClient) BatchCreate(ctx context.Context, batch []*entities.Entity, headers map[string][]string) (*ngsild.BatchOperationResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "batch-create",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeBatchSize, strconv.Itoa(len(batch)))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	result, err := c.batchOperation(ctx, "create entities in batch", "/create", batch, ContentTypeJSONLD, batchCreateSuccessCodes, headers)
	return result, err
}

func (c cbClient) BatchUpsert(ctx context.Context, batch []*entities.Entity, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.BatchOperationResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "batch-upsert",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeBatchSize, strconv.Itoa(len(batch)))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	result, err := c.batchOperation(ctx, "upsert entities in batch", "/upsert"+buildQueryString(parameters...), batch, ContentTypeJSONLD, batchUpsertSuccessCodes, headers)
	return result, err
}

// BatchDelete deletes the entities with the given ids. A multi status response is
// not an error, the entities that could not be deleted are listed in the result.
func (c cbClient) BatchDelete(ctx context.Context, entityIDs []string, headers map[string][]string) (*ngsild.BatchOperationResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "batch-delete",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeBatchSize, strconv.Itoa(len(entityIDs)))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if entityIDs == nil {
		entityIDs = []string{}
	}

	result, err := c.batchOperation(ctx, "delete entities in batch", "/delete", entityIDs, ContentTypeJSON, batchDeleteSuccessCodes, headers)
	return result, err
}

func (c cbClient) batchOperation(ctx context.Context, operation, path string, payload any, ct string, successCodes []int, headers map[string][]string) (*ngsild.BatchOperationResult, error) {
	b, err := marshalBatch(payload)
	if err != nil {
		return nil, err
	}

	resp, respBody, err := c.callContextSource(
		ctx, http.MethodPost, c.baseURL+"/ngsi-ld/v1/entityOperations"+path, bytes.NewBuffer(b),
		contentType(ct), headers,
	)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(successCodes, resp.StatusCode) {
		return nil, ngsierrors.NewContextBrokerError(operation, resp.StatusCode, respBody)
	}

	result, err := ngsild.NewBatchOperationResult(resp.StatusCode, respBody)
	if err != nil {
		return nil, ngsierrors.NewContextBrokerRequestError(operation, err)
	}

	return result, nil
}
