package errors

import (
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrAccessTokenNotRetrieved = fmt.Errorf("access token not retrieved")
var ErrAuthenticationServer = fmt.Errorf("authentication server error")
var ErrContextBroker = fmt.Errorf("context broker error")
var ErrNotFound = fmt.Errorf("resource not found")
var ErrAlreadyExists = fmt.Errorf("already exists")
var ErrConfiguration = fmt.Errorf("configuration error")

const (
	ProblemTypeAlreadyExists     string = "https://uri.etsi.org/ngsi-ld/errors/AlreadyExists"
	ProblemTypeBadRequestData    string = "https://uri.etsi.org/ngsi-ld/errors/BadRequestData"
	ProblemTypeInternalError     string = "https://uri.etsi.org/ngsi-ld/errors/InternalError"
	ProblemTypeInvalidRequest    string = "https://uri.etsi.org/ngsi-ld/errors/InvalidRequest"
	ProblemTypeNonexistentTenant string = "https://uri.etsi.org/ngsi-ld/errors/NonexistentTenant"
	ProblemTypeResourceNotFound  string = "https://uri.etsi.org/ngsi-ld/errors/ResourceNotFound"
)

type myError struct {
	msg    string
	target error
	cause  error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }
func (m myError) Unwrap() error        { return m.cause }

// NewAccessTokenNotRetrievedError is returned when the authentication server
// answered without an access_token
func NewAccessTokenNotRetrievedError(msg string, cause error) error {
	return &myError{
		msg:    msg,
		target: ErrAccessTokenNotRetrieved,
		cause:  cause,
	}
}

// NewAuthenticationServerError is returned when the authentication server could not be reached
func NewAuthenticationServerError(msg string, cause error) error {
	return &myError{
		msg:    msg,
		target: ErrAuthenticationServer,
		cause:  cause,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewAlreadyExistsError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrAlreadyExists,
	}
}

func NewConfigurationError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrConfiguration,
	}
}

// ContextBrokerError reports an unexpected response from, or a failure to talk to, a context broker
type ContextBrokerError struct {
	msg   string
	code  int
	body  []byte
	cause error
}

func (e *ContextBrokerError) Error() string        { return e.msg }
func (e *ContextBrokerError) Is(target error) bool { return target == ErrContextBroker }
func (e *ContextBrokerError) Unwrap() error        { return e.cause }

// StatusCode returns the status code received from the broker, or 0 if no response was received
func (e *ContextBrokerError) StatusCode() int {
	return e.code
}

func (e *ContextBrokerError) Body() string {
	return string(e.body)
}

// ProblemType returns the type of an RFC 7807 problem report sent by the broker, if any
func (e *ContextBrokerError) ProblemType() string {
	return problemField(e.body, "type")
}

// ProblemDetail returns the detail of an RFC 7807 problem report sent by the broker, if any
func (e *ContextBrokerError) ProblemDetail() string {
	return problemField(e.body, "detail")
}

func problemField(body []byte, name string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, name).String()
}

// NewContextBrokerError creates an error for an unexpected status code. The
// message embeds both the status code and the response body.
func NewContextBrokerError(operation string, code int, body []byte) error {
	return &ContextBrokerError{
		msg:  fmt.Sprintf("failed to %s, received %d (%s) from context broker", operation, code, string(body)),
		code: code,
		body: append([]byte{}, body...),
	}
}

// NewContextBrokerRequestError wraps a transport failure that prevented a response from being received
func NewContextBrokerRequestError(operation string, cause error) error {
	return &ContextBrokerError{
		msg:   fmt.Sprintf("failed to %s: %s", operation, cause.Error()),
		cause: cause,
	}
}
