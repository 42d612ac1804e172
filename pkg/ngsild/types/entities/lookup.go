package entities

import (
	"net/url"

	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
)

// HasAttribute reports if a decoded entity mapping contains an instance of the named
// attribute with the given dataset id. A nil datasetID asks for the default instance.
func HasAttribute(entity map[string]any, attributeName string, datasetID *url.URL) bool {
	_, ok := findInstance(entity[attributeName], datasetID)
	return ok
}

// GetAttribute returns the instance of the named attribute that matches datasetID
func GetAttribute(entity map[string]any, attributeName string, datasetID *url.URL) (map[string]any, bool) {
	return findInstance(entity[attributeName], datasetID)
}

// GetRelationshipObject returns the object of a single instance relationship, if it is a valid URI
func GetRelationshipObject(entity map[string]any, relationshipName string) (*url.URL, bool) {
	return relationshipObject(entity[relationshipName])
}

func findInstance(value any, datasetID *url.URL) (map[string]any, bool) {
	for _, instance := range instancesOf(value) {
		if types.MatchesDatasetID(instance, datasetID) {
			return instance, true
		}
	}

	return nil, false
}

// instancesOf returns the instances of an attribute value, which is either a
// single mapping or a list of mappings. Any other value has no instances.
func instancesOf(value any) []map[string]any {
	switch typed := value.(type) {
	case map[string]any:
		return []map[string]any{typed}
	case []map[string]any:
		return typed
	case []any:
		instances := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if instance, ok := item.(map[string]any); ok {
				instances = append(instances, instance)
			}
		}
		return instances
	default:
		return nil
	}
}

func relationshipObject(value any) (*url.URL, bool) {
	instance, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	object, ok := types.URIString(instance["object"])
	if !ok {
		return nil, false
	}

	u, err := types.ParseURI(object)
	if err != nil {
		return nil, false
	}

	return u, true
}
