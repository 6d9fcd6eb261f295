package gosharepoint

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"time"
)

var userAgent = fmt.Sprintf("gosharepoint/%v (%v-%v)",
	SharePointGoClientVersion, runtime.GOOS, runtime.GOARCH)

// sharepointTransport is the default HTTP transport used when a Config
// doesn't supply one.
var sharepointTransport = &http.Transport{
	MaxIdleConns:    10,
	IdleConnTimeout: 30 * time.Minute,
	Proxy:           http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Client is a handle on one SharePoint site.
type Client struct {
	cfg  *Config
	rest *spRestful
}

// NewClient validates the config and returns a site client.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	siteURL, err := url.Parse(cfg.SiteURL)
	if err != nil || siteURL.Host == "" {
		return nil, &SPError{
			Number:      ErrCodeInvalidSiteURL,
			Message:     "failed to parse the site URL %q",
			MessageArgs: []interface{}{cfg.SiteURL},
		}
	}
	transport := cfg.Transporter
	if transport == nil {
		transport = sharepointTransport
	}
	agent := userAgent
	if cfg.Application != "" {
		agent = fmt.Sprintf("%v %v", userAgent, cfg.Application)
	}
	return &Client{
		cfg: cfg,
		rest: &spRestful{
			SiteURL:   siteURL,
			UserAgent: agent,
			Client: &http.Client{
				Transport: transport,
				Timeout:   cfg.Timeout,
			},
		},
	}, nil
}

// List returns a handle on one list of the client's site. The id may
// be the list GUID or its display title.
func (c *Client) List(id string) *List {
	return &List{client: c, id: id, siteURL: c.rest.SiteURL}
}

// listAt returns a handle on a list living under another site URL.
// Joins and merges use it to reach lists of sibling sites.
func (c *Client) listAt(id string, siteURL *url.URL) *List {
	return &List{client: c, id: id, siteURL: siteURL}
}

// List is a handle on one SharePoint list.
type List struct {
	client  *Client
	id      string
	siteURL *url.URL
}

// ID returns the list ID or title the handle was created with.
func (l *List) ID() string {
	return l.id
}

// resolveSiteURL resolves an optional override URL against the list's
// site URL. Empty override keeps the current site.
func (l *List) resolveSiteURL(override string) *url.URL {
	if override == "" {
		return l.siteURL
	}
	ref, err := url.Parse(override)
	if err != nil {
		logger.Warnf("failed to parse the URL override %q. keeping %v", override, l.siteURL)
		return l.siteURL
	}
	return l.siteURL.ResolveReference(ref)
}
