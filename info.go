package gosharepoint

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
)

// ListInfo is the resolved metadata of one list: the list attributes
// and the column definitions.
type ListInfo struct {
	Details map[string]string
	Fields  []map[string]string
}

// RootFolder returns the server-relative root folder of the list.
func (li *ListInfo) RootFolder() string {
	return li.Details["RootFolder"]
}

// Info returns the list's metadata through the process-wide cache.
func (l *List) Info(ctx context.Context) (*ListInfo, error) {
	return l.info(ctx, true)
}

// InfoFresh bypasses the cache and refreshes the entry.
func (l *List) InfoFresh(ctx context.Context) (*ListInfo, error) {
	return l.info(ctx, false)
}

func (l *List) info(ctx context.Context, useCache bool) (*ListInfo, error) {
	if l.id == "" {
		return nil, ErrEmptyListID
	}
	key := metaKey{site: l.siteURL.String(), list: l.id}
	v, err := listInfoCache.get(key, useCache, func() (interface{}, error) {
		return l.fetchInfo(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ListInfo), nil
}

func (l *List) fetchInfo(ctx context.Context) (*ListInfo, error) {
	body := "<listName>" + xmlEscape(l.id) + "</listName>"
	raw, err := l.client.rest.postTo(ctx, l.siteURL, listsEndpoint, "GetList", buildSOAPEnvelope("GetList", body))
	if err != nil {
		return nil, err
	}
	return parseListInfo(raw, l.id, l.siteURL.String())
}

func parseListInfo(body []byte, listID, siteURL string) (*ListInfo, error) {
	info := &ListInfo{}
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeError(err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "List":
			if info.Details != nil {
				continue
			}
			info.Details = make(map[string]string, len(se.Attr))
			for _, a := range se.Attr {
				info.Details[a.Name.Local] = a.Value
			}
		case "Field":
			attrs := make(map[string]string, len(se.Attr))
			for _, a := range se.Attr {
				attrs[a.Name.Local] = a.Value
			}
			// columns without an ID are internal scaffolding
			if attrs["ID"] != "" {
				info.Fields = append(info.Fields, attrs)
			}
		}
	}
	if info.Details == nil {
		return nil, &SPError{
			Number:      ErrCodeListNotFound,
			Message:     errMsgListNotFound,
			MessageArgs: []interface{}{listID, siteURL},
		}
	}
	return info, nil
}
