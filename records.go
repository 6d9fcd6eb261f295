package gosharepoint

import (
	"regexp"
	"strings"
)

// Record is one retrieved list item: a mapping from field name to
// optional value. A missing key means the field was not requested or
// not present; a non-nil pointer to an empty string is a present but
// empty value.
type Record map[string]*string

// Get returns the value of a field and whether the field is present
// with a non-nil value.
func (r Record) Get(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Value returns the value of a field, or "" when the field is absent.
func (r Record) Value(name string) string {
	v, _ := r.Get(name)
	return v
}

// Set stores a value under a field name.
func (r Record) Set(name, value string) {
	r[name] = &value
}

var (
	reTypePrefix    = regexp.MustCompile(`^(string|float|datetime);#?`)
	reMidnightDate  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) 00:00:00$`)
	reInternalIDSep = regexp.MustCompile(`;#-?[0-9]+;#`)
	reLeadingIDSep  = regexp.MustCompile(`^-?[0-9]+;#`)
	reEdgeSep       = regexp.MustCompile(`^;#|;#$`)
	reLookupID      = regexp.MustCompile(`^(-?[0-9]+);#`)
)

// CleanValue cleans a raw value returned by the service: type prefixes
// ("string;#", "float;#", "datetime;#") and lookup IDs are removed,
// ";#"-separated multi-values are joined with the separator, and dates
// at midnight lose their time part.
//
//	CleanValue("15;#Paul", ";") == "Paul"
//	CleanValue(";#Paul;#Jacques;#", ";") == "Paul;Jacques"
//	CleanValue("2022-01-19 00:00:00", ";") == "2022-01-19"
func CleanValue(value, separator string) string {
	if value == "" {
		return ""
	}
	if separator == "" {
		separator = ";"
	}
	s := reTypePrefix.ReplaceAllString(value, "")
	s = reMidnightDate.ReplaceAllString(s, "$1")
	s = reInternalIDSep.ReplaceAllString(s, separator)
	s = reLeadingIDSep.ReplaceAllString(s, "")
	s = reEdgeSep.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ";#", separator)
	return s
}

// LookupID extracts the ID portion of a compound lookup value such as
// "15;#Paul". The second return is false when the value is not in
// lookup format.
func LookupID(value string) (string, bool) {
	m := reLookupID.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}
