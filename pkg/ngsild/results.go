package ngsild

import (
	"encoding/json"
	"fmt"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/tidwall/gjson"
)

type CreateEntityResult struct {
	location string
}

func NewCreateEntityResult(location string) *CreateEntityResult {
	return &CreateEntityResult{
		location: location,
	}
}

func (r CreateEntityResult) Location() string {
	return r.location
}

type QueryEntitiesResult struct {
	Found      []*entities.Entity
	TotalCount int64
}

func NewQueryEntitiesResult(found []*entities.Entity) *QueryEntitiesResult {
	return &QueryEntitiesResult{
		Found:      found,
		TotalCount: -1,
	}
}

type BatchEntityError struct {
	EntityID string `json:"entityId"`
	Error    struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"error"`
}

// BatchOperationResult holds the outcome of a batch create, upsert or delete
type BatchOperationResult struct {
	StatusCode int                `json:"-"`
	Success    []string           `json:"success"`
	Errors     []BatchEntityError `json:"errors"`
}

func (bor *BatchOperationResult) IsMultiStatus() bool {
	return len(bor.Errors) > 0
}

// NewBatchOperationResult accepts the different shapes a broker may answer a batch
// operation with: no body, an array of entity ids, or a success/errors object
func NewBatchOperationResult(code int, body []byte) (*BatchOperationResult, error) {
	bor := &BatchOperationResult{
		StatusCode: code,
		Success:    []string{},
		Errors:     []BatchEntityError{},
	}

	if len(body) == 0 {
		return bor, nil
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("batch operation result is not valid json")
	}

	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		for _, id := range doc.Array() {
			bor.Success = append(bor.Success, id.String())
		}
		return bor, nil
	}

	err := json.Unmarshal(body, bor)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch operation result: %w", err)
	}

	return bor, nil
}

type CreateSubscriptionResult struct {
	location       string
	alreadyExisted bool
}

func NewCreateSubscriptionResult(location string, alreadyExisted bool) *CreateSubscriptionResult {
	return &CreateSubscriptionResult{
		location:       location,
		alreadyExisted: alreadyExisted,
	}
}

func (r CreateSubscriptionResult) Location() string {
	return r.location
}

// AlreadyExisted is true when the broker reported a conflict that the client was configured to tolerate
func (r CreateSubscriptionResult) AlreadyExisted() bool {
	return r.alreadyExisted
}

type DeleteEntityResult struct{}

func NewDeleteEntityResult() *DeleteEntityResult {
	return &DeleteEntityResult{}
}
