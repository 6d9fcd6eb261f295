package gosharepoint

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

const rowAttrPrefix = "ows_"

// decodeListItems decodes a GetListItems response body into Records.
// Every z:row (or row) element becomes one Record with the attribute
// prefix stripped from each key; aliasPrefix, when non-empty, is
// prepended to every key as "<alias>.<field>". The continuation token
// is read off the rs:data wrapper. Both self-closing and paired row
// elements are accepted.
func decodeListItems(body []byte, aliasPrefix string) ([]Record, string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	items := []Record{}
	token := ""
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", decodeError(err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "row":
			items = append(items, decodeRow(se, aliasPrefix))
		case "data":
			for _, a := range se.Attr {
				if a.Name.Local == "ListItemCollectionPositionNext" && a.Value != "" {
					token = a.Value
				}
			}
		}
	}
	return items, token, nil
}

func decodeRow(se xml.StartElement, aliasPrefix string) Record {
	rec := make(Record, len(se.Attr))
	for _, a := range se.Attr {
		if !strings.HasPrefix(a.Name.Local, rowAttrPrefix) {
			continue
		}
		key := strings.TrimPrefix(a.Name.Local, rowAttrPrefix)
		if aliasPrefix != "" {
			key = aliasPrefix + "." + key
		}
		value := a.Value
		rec[key] = &value
	}
	return rec
}

// decodeAttributeElements collects the attribute maps of every element
// with the given local name. GetList, GetListCollection and
// GetListContentTypes all answer with flat attribute-per-element
// metadata, so one decoder serves them all.
func decodeAttributeElements(body []byte, local string) ([]map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var out []map[string]string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeError(err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		attrs := make(map[string]string, len(se.Attr))
		for _, a := range se.Attr {
			attrs[a.Name.Local] = a.Value
		}
		out = append(out, attrs)
	}
	return out, nil
}
