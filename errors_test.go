package gosharepoint

import (
	"testing"
)

func TestSPErrorFormat(t *testing.T) {
	err := &SPError{Number: ErrCodeEmptyListID, Message: "list ID is empty"}
	assertEqualE(t, err.Error(), "260000: list ID is empty")

	err = serviceError(503, "throttled")
	assertEqualE(t, err.Error(), "261000: remote service returned status 503. body: throttled")
}

func TestPreformattedErrors(t *testing.T) {
	assertEqualE(t, ErrEmptyListID.Number, ErrCodeEmptyListID)
	assertEqualE(t, ErrEmptySiteURL.Number, ErrCodeEmptySiteURL)
}
