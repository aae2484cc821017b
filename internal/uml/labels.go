package uml

import "strings"

// MultiStereotypeSeparator appears inside qualified stereotype names
// ("profile::Stereotype"). It is never a label separator.
const MultiStereotypeSeparator = "::"

// QuoteLabel backtick-quotes a label token that contains a space or the
// multi-stereotype separator.
func QuoteLabel(token string) string {
	if strings.Contains(token, " ") || strings.Contains(token, MultiStereotypeSeparator) {
		return "`" + token + "`"
	}
	return token
}

// JoinLabels quotes each token as needed and joins them with a single colon.
func JoinLabels(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = QuoteLabel(t)
	}
	return strings.Join(quoted, ":")
}

// SplitLabels reverses JoinLabels. A single colon outside backticks separates
// tokens; "::" outside backticks stays inside the current token.
func SplitLabels(s string) []string {
	if s == "" {
		return nil
	}
	var tokens []string
	var cur strings.Builder
	quoted := false
	runes := []rune(s)
	flush := func() {
		tokens = append(tokens, cur.String())
		cur.Reset()
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '`':
			quoted = !quoted
		case r == ':' && !quoted:
			if i+1 < len(runes) && runes[i+1] == ':' {
				cur.WriteString(MultiStereotypeSeparator)
				i++
				continue
			}
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
