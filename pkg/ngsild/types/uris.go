package types

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const DatasetIDPrefix string = "urn:ngsi-ld:Dataset:"

// DefaultDatasetID creates a dataset id in the urn:ngsi-ld:Dataset namespace
func DefaultDatasetID(id string) *url.URL {
	u, err := url.Parse(DatasetIDPrefix + id)
	if err != nil {
		return &url.URL{Scheme: "urn", Opaque: "ngsi-ld:Dataset:" + url.PathEscape(id)}
	}
	return u
}

func DatasetIDFromUUID(id uuid.UUID) *url.URL {
	return DefaultDatasetID(id.String())
}

// ParseURI parses an absolute URI such as an entity id or a relationship object
func ParseURI(s string) (*url.URL, error) {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return nil, fmt.Errorf("%q is not a valid uri", s)
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}

	if !u.IsAbs() {
		return nil, fmt.Errorf("%q is not an absolute uri", s)
	}

	return u, nil
}

// CanonicalURI normalises the parts of an URI that may be written differently
// while still referring to the same resource (scheme and host case, trailing slashes)
func CanonicalURI(s string) string {
	s = strings.TrimSpace(s)

	u, err := url.Parse(s)
	if err != nil {
		return s
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Opaque != "" {
		u.Opaque = strings.TrimRight(u.Opaque, "/")
	} else {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = strings.TrimRight(u.RawPath, "/")
	}

	return u.String()
}

func SameURI(a, b string) bool {
	return CanonicalURI(a) == CanonicalURI(b)
}

// URIString accepts the representations a dataset id or object may have in a
// decoded or built instance mapping
func URIString(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		return typed, true
	case *url.URL:
		if typed == nil {
			return "", false
		}
		return typed.String(), true
	case url.URL:
		return typed.String(), true
	case fmt.Stringer:
		return typed.String(), true
	default:
		return "", false
	}
}

// DatasetIDOf returns the datasetId field of an instance mapping, if present
func DatasetIDOf(instance map[string]any) (string, bool) {
	v, ok := instance["datasetId"]
	if !ok || v == nil {
		return "", false
	}

	if id, ok := URIString(v); ok {
		return id, true
	}

	return fmt.Sprint(v), true
}

// MatchesDatasetID reports if an instance is the one identified by datasetID.
// A nil datasetID only matches the default instance, i.e. the one without a datasetId.
func MatchesDatasetID(instance map[string]any, datasetID *url.URL) bool {
	id, hasID := DatasetIDOf(instance)

	if datasetID == nil {
		return !hasID
	}

	return hasID && SameURI(id, datasetID.String())
}
