package gosharepoint

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"
)

// viewDetails is the resolved definition of a named view: the concrete
// field set plus the sort and filter fragments the view contributes to
// a request.
type viewDetails struct {
	ID        string
	Fields    []string
	OrderBy   string // "Field ASC,Other DESC" form
	WhereCAML string // inner CAML of the view's Where block
}

// resolveView resolves a view name or GUID into its definition,
// through the process-wide view cache.
func (l *List) resolveView(ctx context.Context, viewName string, useCache bool) (*viewDetails, error) {
	key := metaKey{site: l.siteURL.String(), list: l.id, name: viewName}
	v, err := viewCache.get(key, useCache, func() (interface{}, error) {
		return l.fetchViewDetails(ctx, viewName)
	})
	if err != nil {
		return nil, err
	}
	return v.(*viewDetails), nil
}

func (l *List) fetchViewDetails(ctx context.Context, viewName string) (*viewDetails, error) {
	viewID, err := l.findViewID(ctx, viewName)
	if err != nil {
		return nil, err
	}
	body := "<listName>" + xmlEscape(l.id) + "</listName>" +
		"<viewName>" + xmlEscape(viewID) + "</viewName>"
	raw, err := l.client.rest.postTo(ctx, l.siteURL, viewsEndpoint, "GetView", buildSOAPEnvelope("GetView", body))
	if err != nil {
		return nil, err
	}
	vd, err := parseViewDetails(raw)
	if err != nil {
		return nil, err
	}
	vd.ID = viewID
	return vd, nil
}

// findViewID maps a display name (or GUID) to the view GUID via the
// view collection of the list.
func (l *List) findViewID(ctx context.Context, viewName string) (string, error) {
	if strings.HasPrefix(viewName, "{") {
		return viewName, nil
	}
	body := "<listName>" + xmlEscape(l.id) + "</listName>"
	raw, err := l.client.rest.postTo(ctx, l.siteURL, viewsEndpoint, "GetViewCollection", buildSOAPEnvelope("GetViewCollection", body))
	if err != nil {
		return "", err
	}
	views, err := decodeAttributeElements(raw, "View")
	if err != nil {
		return "", err
	}
	for _, view := range views {
		if view["DisplayName"] == viewName || view["Name"] == viewName {
			return view["Name"], nil
		}
	}
	return "", &SPError{
		Number:      ErrCodeViewNotFound,
		Message:     errMsgViewNotFound,
		MessageArgs: []interface{}{viewName, l.id},
	}
}

// parseViewDetails pulls the field list, the sort spec and the raw
// Where fragment out of a GetView response.
func parseViewDetails(body []byte) (*viewDetails, error) {
	vd := &viewDetails{}
	dec := xml.NewDecoder(bytes.NewReader(body))
	inViewFields := false
	inOrderBy := false
	var orderBy []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "ViewFields":
				inViewFields = true
			case "OrderBy":
				inOrderBy = true
			case "FieldRef":
				name := ""
				ascending := true
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "Name":
						name = a.Value
					case "Ascending":
						ascending = !strings.EqualFold(a.Value, "FALSE")
					}
				}
				if name == "" {
					continue
				}
				if inViewFields {
					vd.Fields = append(vd.Fields, name)
				} else if inOrderBy {
					dir := " ASC"
					if !ascending {
						dir = " DESC"
					}
					orderBy = append(orderBy, name+dir)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "ViewFields":
				inViewFields = false
			case "OrderBy":
				inOrderBy = false
			}
		}
	}
	vd.OrderBy = strings.Join(orderBy, ",")
	vd.WhereCAML = innerXML(string(body), "Where")
	return vd, nil
}

// innerXML returns the raw content between the first <tag> and its
// matching </tag>, "" when the tag is absent.
func innerXML(s, tag string) string {
	start := strings.Index(s, "<"+tag+">")
	if start < 0 {
		return ""
	}
	start += len(tag) + 2
	end := strings.Index(s[start:], "</"+tag+">")
	if end < 0 {
		return ""
	}
	return s[start : start+end]
}
