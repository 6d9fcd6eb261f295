package gosharepoint

import (
	"fmt"
)

// SPError is an error type including various SharePoint specific information.
type SPError struct {
	Number      int
	Message     string
	MessageArgs []interface{}
}

func (se *SPError) Error() string {
	message := se.Message
	if len(se.MessageArgs) > 0 {
		message = fmt.Sprintf(se.Message, se.MessageArgs...)
	}
	return fmt.Sprintf("%06d: %s", se.Number, message)
}

const (
	// configuration

	// ErrCodeEmptyListID is an error code for the case where a request doesn't name a list.
	ErrCodeEmptyListID = 260000
	// ErrCodeEmptySiteURL is an error code for the case where a Config doesn't include a site URL.
	ErrCodeEmptySiteURL = 260001
	// ErrCodeInvalidSiteURL is an error code for the case where a Config includes an unparsable site URL.
	ErrCodeInvalidSiteURL = 260002
	// ErrCodeInvalidJoinSpec is an error code for the case where a join spec has no usable ON clause.
	ErrCodeInvalidJoinSpec = 260003
	// ErrCodeInvalidMergeSpec is an error code for the case where a merge target doesn't name a list.
	ErrCodeInvalidMergeSpec = 260004
	// ErrCodeFailedToFindProfile is an error code for the case where connections.toml doesn't include the requested profile.
	ErrCodeFailedToFindProfile = 260005
	// ErrCodeTomlFileParsingFailed is an error code for the case where connections.toml cannot be parsed.
	ErrCodeTomlFileParsingFailed = 260006

	// remote service

	// ErrCodeServiceFailure is an error code for the case where the service responds with a non-success status.
	ErrCodeServiceFailure = 261000
	// ErrCodeSOAPFault is an error code for the case where a success response carries a SOAP fault.
	ErrCodeSOAPFault = 261001

	// decoding

	// ErrCodeMalformedResponse is an error code for the case where the response XML cannot be decoded.
	ErrCodeMalformedResponse = 262000

	// filter translation

	// ErrCodeFilterSyntax is an error code for the case where a filter expression cannot be translated to CAML.
	ErrCodeFilterSyntax = 263000

	// metadata

	// ErrCodeViewNotFound is an error code for the case where a named view doesn't exist on the list.
	ErrCodeViewNotFound = 264000
	// ErrCodeListNotFound is an error code for the case where list metadata cannot be resolved.
	ErrCodeListNotFound = 264001
)

const (
	errMsgServiceFailure      = "remote service returned status %v. body: %v"
	errMsgSOAPFault           = "remote service returned a SOAP fault: %v"
	errMsgMalformedResponse   = "failed to decode the service response: %v"
	errMsgFilterSyntax        = "invalid filter expression: %v"
	errMsgViewNotFound        = "view %q was not found on list %q"
	errMsgListNotFound        = "list %q was not found at %v"
	errMsgInvalidJoinSpec     = "invalid join spec: %v"
	errMsgFailedToFindProfile = "failed to find the connection profile %q in the toml file"
	errMsgFailedToParseToml   = "failed to parse the toml file. err: %v"
)

var (
	// preformatted errors

	// ErrEmptyListID is returned if an operation is issued without a list ID or title.
	ErrEmptyListID = &SPError{
		Number:  ErrCodeEmptyListID,
		Message: "list ID is empty",
	}
	// ErrEmptySiteURL is returned if a Config doesn't include a site URL.
	ErrEmptySiteURL = &SPError{
		Number:  ErrCodeEmptySiteURL,
		Message: "site URL is empty",
	}
)

func serviceError(status int, body string) *SPError {
	return &SPError{
		Number:      ErrCodeServiceFailure,
		Message:     errMsgServiceFailure,
		MessageArgs: []interface{}{status, body},
	}
}

func soapFaultError(fault string) *SPError {
	return &SPError{
		Number:      ErrCodeSOAPFault,
		Message:     errMsgSOAPFault,
		MessageArgs: []interface{}{fault},
	}
}

func decodeError(err error) *SPError {
	return &SPError{
		Number:      ErrCodeMalformedResponse,
		Message:     errMsgMalformedResponse,
		MessageArgs: []interface{}{err},
	}
}

func filterSyntaxError(detail string) *SPError {
	return &SPError{
		Number:      ErrCodeFilterSyntax,
		Message:     errMsgFilterSyntax,
		MessageArgs: []interface{}{detail},
	}
}

func invalidJoinSpecError(detail string) *SPError {
	return &SPError{
		Number:      ErrCodeInvalidJoinSpec,
		Message:     errMsgInvalidJoinSpec,
		MessageArgs: []interface{}{detail},
	}
}
