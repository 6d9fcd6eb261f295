package gosharepoint

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	soapNamespace = "http://schemas.microsoft.com/sharepoint/soap/"

	headerContentTypeTextXML = "text/xml; charset=utf-8"
	headerSOAPActionKey      = "SOAPAction"
	headerRequestIDKey       = "X-RequestID"

	listsEndpoint = "_vti_bin/Lists.asmx"
	viewsEndpoint = "_vti_bin/Views.asmx"
)

// buildSOAPEnvelope wraps an inner XML fragment in the protocol
// envelope for the given method name.
func buildSOAPEnvelope(method, body string) string {
	var b strings.Builder
	b.WriteString(`<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`)
	b.WriteString(`<soap:Body>`)
	b.WriteString(`<` + method + ` xmlns="` + soapNamespace + `">`)
	b.WriteString(body)
	b.WriteString(`</` + method + `>`)
	b.WriteString(`</soap:Body>`)
	b.WriteString(`</soap:Envelope>`)
	return b.String()
}

type spRestful struct {
	SiteURL   *url.URL
	UserAgent string
	Client    *http.Client
}

// post issues one SOAP round against the client's own site.
func (sr *spRestful) post(ctx context.Context, endpoint, method, body string) ([]byte, error) {
	return sr.postTo(ctx, sr.SiteURL, endpoint, method, body)
}

// postTo issues one SOAP round against an explicit site URL. Joins and
// merges reaching into sibling sites go through here. Non-success
// statuses are wrapped into an SPError carrying the status and raw
// body; retrying transient failures is the transport's concern, not
// this layer's.
func (sr *spRestful) postTo(ctx context.Context, siteURL *url.URL, endpoint, method, body string) ([]byte, error) {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, SPRequestIDKey, requestID)
	fullURL := siteURL.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL.String(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", headerContentTypeTextXML)
	req.Header.Set("User-Agent", sr.UserAgent)
	req.Header.Set(headerSOAPActionKey, soapNamespace+method)
	req.Header.Set(headerRequestIDKey, requestID)
	logger.WithContext(ctx).Debugf("%v: %v", method, fullURL)
	resp, err := sr.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		logger.WithContext(ctx).Warnf("%v failed. status: %v", method, resp.StatusCode)
		return nil, serviceError(resp.StatusCode, string(b))
	}
	if fault := extractSOAPFault(b); fault != "" {
		logger.WithContext(ctx).Warnf("%v returned a SOAP fault: %v", method, fault)
		return nil, soapFaultError(fault)
	}
	return b, nil
}

// extractSOAPFault returns the faultstring of a fault embedded in a
// success-status body, or "" when the body carries none.
func extractSOAPFault(body []byte) string {
	s := string(body)
	start := strings.Index(s, "<faultstring>")
	if start < 0 {
		return ""
	}
	start += len("<faultstring>")
	end := strings.Index(s[start:], "</faultstring>")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(xmlUnescape(s[start : start+end]))
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}

func xmlUnescape(s string) string {
	r := strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
	return r.Replace(s)
}
