package uml

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// vendorPrefixes are stripped from raw identifiers before rewriting.
var vendorPrefixes = []string{"EAID_", "EAPK_"}

var rawGUIDRegex = regexp.MustCompile(`(?i)([0-9a-f]{8})_([0-9a-f]{4})_([0-9a-f]{4})_([0-9a-f]{4})_([0-9a-f]{12})`)

// CanonicalGUID converts a raw XMI identifier such as
// "EAID_12345678_1234_1234_1234_123456789012" into the brace-dashed form
// "{12345678-1234-1234-1234-123456789012}". Input that does not contain the
// underscore grouping passes through with only the prefixes removed.
// CanonicalGUID(CanonicalGUID(x)) == CanonicalGUID(x) for every x.
func CanonicalGUID(raw string) string {
	s := raw
	for {
		stripped := s
		for _, p := range vendorPrefixes {
			stripped = strings.ReplaceAll(stripped, p, "")
		}
		if stripped == s {
			break
		}
		s = stripped
	}
	return rawGUIDRegex.ReplaceAllString(s, "{${1}-${2}-${3}-${4}-${5}}")
}

// IsCanonicalGUID reports whether s is exactly one brace-dashed GUID.
func IsCanonicalGUID(s string) bool {
	if len(s) != 38 || s[0] != '{' || s[37] != '}' {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ShortGUID abbreviates a GUID for log output.
func ShortGUID(guid string) string {
	if len(guid) <= 10 {
		return guid
	}
	return guid[:4] + "..." + guid[len(guid)-6:]
}
