package errors

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/matryer/is"
)

func TestErrorsMatchTheirSentinels(t *testing.T) {
	is := is.New(t)

	is.True(errors.Is(NewNotFoundError("Entity not found"), ErrNotFound))
	is.True(errors.Is(NewAlreadyExistsError("Entity already exists"), ErrAlreadyExists))
	is.True(errors.Is(NewConfigurationError("missing token"), ErrConfiguration))
	is.True(errors.Is(NewAccessTokenNotRetrievedError("no token", nil), ErrAccessTokenNotRetrieved))
	is.True(errors.Is(NewAuthenticationServerError("unreachable", nil), ErrAuthenticationServer))
	is.True(!errors.Is(NewNotFoundError("Entity not found"), ErrAlreadyExists))
}

func TestWrappedErrorsKeepTheirCause(t *testing.T) {
	is := is.New(t)

	cause := &url.Error{Op: "Post", URL: "http://localhost", Err: fmt.Errorf("connection refused")}
	err := fmt.Errorf("token: %w", NewAuthenticationServerError(cause.Error(), cause))

	is.True(errors.Is(err, ErrAuthenticationServer))

	var urlErr *url.Error
	is.True(errors.As(err, &urlErr))
}

func TestContextBrokerError(t *testing.T) {
	is := is.New(t)

	body := []byte(`{"type":"https://uri.etsi.org/ngsi-ld/errors/ResourceNotFound","title":"not found","detail":"no such entity"}`)
	err := NewContextBrokerError("retrieve entity", 404, body)

	is.True(errors.Is(err, ErrContextBroker))
	is.Equal(err.Error(), fmt.Sprintf("failed to retrieve entity, received 404 (%s) from context broker", string(body)))

	var cbErr *ContextBrokerError
	is.True(errors.As(err, &cbErr))
	is.Equal(cbErr.StatusCode(), 404)
	is.Equal(cbErr.Body(), string(body))
	is.Equal(cbErr.ProblemType(), ProblemTypeResourceNotFound)
	is.Equal(cbErr.ProblemDetail(), "no such entity")
}

func TestContextBrokerErrorWithoutProblemReport(t *testing.T) {
	is := is.New(t)

	var cbErr *ContextBrokerError
	is.True(errors.As(NewContextBrokerError("create entity", 500, []byte("oops")), &cbErr))
	is.Equal(cbErr.ProblemType(), "")

	err := NewContextBrokerRequestError("send request", fmt.Errorf("connection reset"))
	is.True(errors.Is(err, ErrContextBroker))
	is.Equal(err.Error(), "failed to send request: connection reset")
}
