package chain

import "strings"

const (
	// PreviousToken is replaced by the previous response
	PreviousToken = "{{previous}}"

	// LegacyToken is the older spelling of PreviousToken
	LegacyToken = "{{}}"

	// positionalToken marks a template as a positional format string
	positionalToken = "{}"
)

// Substitute renders a literal template with the previous response.
//
// The first rule that matches wins:
//
//  1. {{previous}} anywhere: every occurrence is replaced.
//  2. {} anywhere: the template is formatted positionally with previous as
//     the only argument; a template that does not format cleanly is sent
//     unchanged.
//  3. {{}} anywhere: every occurrence is replaced.
//  4. Otherwise the template is sent unchanged.
//
// Templates that carry literal braces (JSON, code) can trip rule 2; such
// prompts should use {{previous}} or a Transform item instead. Note that
// {{}} also contains {}, so rule 2 claims it first and formats it to a
// literal "{}".
func Substitute(template, previous string) string {
	switch {
	case strings.Contains(template, PreviousToken):
		return strings.ReplaceAll(template, PreviousToken, previous)
	case strings.Contains(template, positionalToken):
		out, err := FormatPositional(template, previous)
		if err != nil {
			return template
		}
		return out
	case strings.Contains(template, LegacyToken):
		return strings.ReplaceAll(template, LegacyToken, previous)
	default:
		return template
	}
}
