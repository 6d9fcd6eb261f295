package gosharepoint

import (
	"context"
)

// GetLists returns the attribute maps of every list of the site,
// through the process-wide list-collection cache.
func (c *Client) GetLists(ctx context.Context) ([]map[string]string, error) {
	return c.getLists(ctx, true)
}

// GetListsFresh bypasses the cache and refreshes the entry.
func (c *Client) GetListsFresh(ctx context.Context) ([]map[string]string, error) {
	return c.getLists(ctx, false)
}

func (c *Client) getLists(ctx context.Context, useCache bool) ([]map[string]string, error) {
	key := metaKey{site: c.rest.SiteURL.String()}
	v, err := listCollectionCache.get(key, useCache, func() (interface{}, error) {
		raw, err := c.rest.post(ctx, listsEndpoint, "GetListCollection",
			buildSOAPEnvelope("GetListCollection", ""))
		if err != nil {
			return nil, err
		}
		return decodeAttributeElements(raw, "List")
	})
	if err != nil {
		return nil, err
	}
	return v.([]map[string]string), nil
}
