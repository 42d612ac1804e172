package ngsild

import (
	"net/http"
	"testing"

	"github.com/matryer/is"
)

func TestBatchOperationResultFromEmptyBody(t *testing.T) {
	is := is.New(t)

	r, err := NewBatchOperationResult(http.StatusNoContent, nil)
	is.NoErr(err)
	is.Equal(r.StatusCode, http.StatusNoContent)
	is.Equal(len(r.Success), 0)
	is.True(!r.IsMultiStatus())
}

func TestBatchOperationResultFromListOfIDs(t *testing.T) {
	is := is.New(t)

	r, err := NewBatchOperationResult(http.StatusCreated, []byte(`["urn:a","urn:b"]`))
	is.NoErr(err)
	is.Equal(r.Success, []string{"urn:a", "urn:b"})
}

func TestBatchOperationResultWithErrors(t *testing.T) {
	is := is.New(t)

	r, err := NewBatchOperationResult(http.StatusMultiStatus, []byte(`{"success":["urn:a"],"errors":[{"entityId":"urn:b","error":{"type":"x","title":"y"}}]}`))
	is.NoErr(err)
	is.True(r.IsMultiStatus())
	is.Equal(r.Errors[0].EntityID, "urn:b")
	is.Equal(r.Errors[0].Error.Title, "y")
}

func TestBatchOperationResultFromInvalidBody(t *testing.T) {
	is := is.New(t)

	_, err := NewBatchOperationResult(http.StatusOK, []byte(`not json`))
	is.True(err != nil)
}
