package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	ngsierrors "github.com/diwise/ngsi-ld-client/pkg/ngsild/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider supplies the bearer token attached to every request sent to a context broker
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

type Mode string

const (
	None              Mode = "none"
	StaticToken       Mode = "token"
	ClientCredentials Mode = "client_credentials"
)

// UnusedToken is sent as bearer token when authentication is disabled
const UnusedToken string = "Unused-Thing"

const DefaultGrantType string = "client_credentials"

type Credentials struct {
	ServerURL    string
	ClientID     string
	ClientSecret string
	GrantType    string
}

type Config struct {
	Mode        Mode
	Token       string
	Credentials Credentials
	HTTPClient  *http.Client
}

var tracer = otel.Tracer("ngsi-ld-client/auth")

// New validates the configuration and returns the token provider for its mode
func New(cfg Config) (TokenProvider, error) {
	switch cfg.Mode {
	case None, "":
		return &noAuth{}, nil
	case StaticToken:
		if cfg.Token == "" {
			return nil, ngsierrors.NewConfigurationError("a token must be supplied when using static token authentication")
		}
		return &staticToken{token: cfg.Token}, nil
	case ClientCredentials:
		return newClientCredentials(cfg)
	}

	return nil, ngsierrors.NewConfigurationError("unknown authentication mode " + string(cfg.Mode))
}

type noAuth struct{}

func (a *noAuth) GetToken(ctx context.Context) (string, error) {
	logging.GetFromContext(ctx).Debug("authentication is not enabled, returning placeholder token")
	return UnusedToken, nil
}

type staticToken struct {
	token string
}

func (a *staticToken) GetToken(ctx context.Context) (string, error) {
	return a.token, nil
}

type clientCredentialsAuth struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
}

func newClientCredentials(cfg Config) (*clientCredentialsAuth, error) {
	creds := cfg.Credentials

	if creds.ServerURL == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ngsierrors.NewConfigurationError("server url, client id and client secret are required for client credentials authentication")
	}

	if _, err := url.ParseRequestURI(creds.ServerURL); err != nil {
		return nil, ngsierrors.NewConfigurationError("invalid authentication server url " + creds.ServerURL)
	}

	grantType := creds.GrantType
	if grantType == "" {
		grantType = DefaultGrantType
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &clientCredentialsAuth{
		cfg: clientcredentials.Config{
			ClientID:       creds.ClientID,
			ClientSecret:   creds.ClientSecret,
			TokenURL:       creds.ServerURL,
			AuthStyle:      oauth2.AuthStyleInParams,
			EndpointParams: url.Values{"grant_type": {grantType}},
		},
		httpClient: httpClient,
	}, nil
}

// GetToken requests a new token from the authentication server on every call
func (a *clientCredentialsAuth) GetToken(ctx context.Context) (string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-token",
		trace.WithAttributes(attribute.String("client-id", a.cfg.ClientID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	failure := &ioFailure{}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.recordingClient(failure))

	token, err := a.cfg.Token(ctx)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) || failure.err != nil {
			logging.GetFromContext(ctx).Warn("failed to contact authentication server", "err", err.Error())
			err = ngsierrors.NewAuthenticationServerError(err.Error(), err)
			return "", err
		}

		err = ngsierrors.NewAccessTokenNotRetrievedError("unable to get an access token", err)
		return "", err
	}

	return token.AccessToken, nil
}

// ioFailure holds the first transport or body read error of a single token request
type ioFailure struct {
	err error
}

func (f *ioFailure) record(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (a *clientCredentialsAuth) recordingClient(failure *ioFailure) *http.Client {
	next := a.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	c := *a.httpClient
	c.Transport = &recordingTransport{next: next, failure: failure}
	return &c
}

type recordingTransport struct {
	next    http.RoundTripper
	failure *ioFailure
}

func (t *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(r)
	if err != nil {
		t.failure.record(err)
		return nil, err
	}

	resp.Body = &recordingBody{ReadCloser: resp.Body, failure: t.failure}
	return resp, nil
}

type recordingBody struct {
	io.ReadCloser
	failure *ioFailure
}

func (b *recordingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		b.failure.record(err)
	}
	return n, err
}
