// Package gosharepoint is a Go client for SharePoint's SOAP list
// services (Lists.asmx and Views.asmx).
//
// The package presents one declarative entry point, (*List).GetItems,
// that accepts a Request describing fields, filter, sort, grouping,
// paging, folder scope, calendar expansion, cross-list joins and
// merges, and returns a single unified row set. The per-request row
// caps and throttling limits of the remote service are handled
// transparently by splitting the request into multiple rounds and
// following continuation tokens.
//
// Authentication and retry policy are the caller's concern: supply an
// http.RoundTripper via Config.Transporter that carries credentials
// and whatever retry behavior is wanted.
package gosharepoint
