package annotator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseBWS extracts the best and worst word IDs from a model reply.
//
// The reply is trimmed and stripped of spaces; runes 0 and 2 must then be distinct
// digits in 1-4, e.g. "3; 1" yields best=3 and worst=1. Anything else leaves both IDs
// nil. The trimmed reply is always kept in Raw.
func ParseBWS(reply string) Annotation {
	raw := strings.TrimSpace(reply)
	ann := Annotation{Raw: raw}

	compact := []rune(strings.ReplaceAll(raw, " ", ""))
	if len(compact) < 3 {
		return ann
	}

	best, okBest := wordID(compact[0])
	worst, okWorst := wordID(compact[2])
	if !okBest || !okWorst || compact[0] == compact[2] {
		return ann
	}

	ann.Best = &best
	ann.Worst = &worst
	return ann
}

// wordID converts a rune in '1'..'4' to its value.
func wordID(r rune) (int, bool) {
	if r < '1' || r > '4' {
		return 0, false
	}
	return int(r - '0'), true
}

// String renders the annotation as the dictionary literal stored in record files,
// e.g. {'best': 3, 'worst': 1, 'raw': '3; 1'}.
func (a Annotation) String() string {
	return fmt.Sprintf("{'best': %s, 'worst': %s, 'raw': %s}",
		optionalInt(a.Best), optionalInt(a.Worst), quoteLiteral(a.Raw))
}

func optionalInt(v *int) string {
	if v == nil {
		return "None"
	}
	return strconv.Itoa(*v)
}

// quoteLiteral quotes s the way the record files always have: single quotes unless
// the text contains a single quote and no double quote, backslash escapes for the
// quote, backslash and control characters, non-printable runes as hex escapes.
func quoteLiteral(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var sb strings.Builder
	sb.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x7f || unicode.IsPrint(r):
			sb.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteRune(quote)
	return sb.String()
}
