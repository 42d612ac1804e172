package client

import (
	"context"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const DefaultPageSize uint64 = 50

// ForEachEntity queries entities one page at a time and calls callback for every entity
// found. Paging stops when a page holds fewer than pageSize entities, or when the
// callback returns an error.
func ForEachEntity(ctx context.Context, c ContextBrokerClient, pageSize uint64, callback func(e *entities.Entity) error, headers map[string][]string, parameters ...RequestDecoratorFunc) (count int, err error) {
	logger := logging.GetFromContext(ctx)

	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	var offset uint64

	for {
		params := append(append([]RequestDecoratorFunc{}, parameters...), Limit(pageSize), Offset(offset))

		qer, err := c.QueryEntities(ctx, headers, params...)
		if err != nil {
			return count, err
		}

		for _, e := range qer.Found {
			if err = callback(e); err != nil {
				return count, err
			}
			count++
		}

		logger.Debug("fetched page of entities", "offset", offset, "size", len(qer.Found))

		if uint64(len(qer.Found)) < pageSize {
			break
		}

		offset += pageSize
	}

	return count, nil
}
