package gosharepoint

import (
	"context"
)

// GetContentTypes returns the attribute maps of the content types
// attached to the list, through the process-wide cache.
func (l *List) GetContentTypes(ctx context.Context) ([]map[string]string, error) {
	return l.getContentTypes(ctx, true)
}

// GetContentTypesFresh bypasses the cache and refreshes the entry.
func (l *List) GetContentTypesFresh(ctx context.Context) ([]map[string]string, error) {
	return l.getContentTypes(ctx, false)
}

func (l *List) getContentTypes(ctx context.Context, useCache bool) ([]map[string]string, error) {
	if l.id == "" {
		return nil, ErrEmptyListID
	}
	key := metaKey{site: l.siteURL.String(), list: l.id, name: "contenttypes"}
	v, err := contentTypeCache.get(key, useCache, func() (interface{}, error) {
		body := "<listName>" + xmlEscape(l.id) + "</listName>"
		raw, err := l.client.rest.postTo(ctx, l.siteURL, listsEndpoint, "GetListContentTypes",
			buildSOAPEnvelope("GetListContentTypes", body))
		if err != nil {
			return nil, err
		}
		return decodeAttributeElements(raw, "ContentType")
	})
	if err != nil {
		return nil, err
	}
	return v.([]map[string]string), nil
}
