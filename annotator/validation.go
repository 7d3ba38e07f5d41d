package annotator

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxItemLength is the item length above which a warning is raised.
const DefaultMaxItemLength = 2000

// ValidationResult contains the results of item validation
type ValidationResult struct {
	Item        Item
	Valid       bool
	Issues      []string
	Suggestions []string
}

// ValidateItem checks an item for content that is unlikely to be a real tuple.
// Items are annotated regardless; the result only feeds warnings.
func ValidateItem(item Item) ValidationResult {
	result := ValidationResult{Item: item, Valid: true}

	if item.Text == "" {
		result.Valid = false
		result.Issues = append(result.Issues, "item is empty")
		result.Suggestions = append(result.Suggestions, "remove blank lines from the item file")
		return result
	}

	if !utf8.ValidString(item.Text) {
		result.Valid = false
		result.Issues = append(result.Issues, "item is not valid UTF-8")
		result.Suggestions = append(result.Suggestions, "re-encode the item file as UTF-8")
	}

	for _, r := range item.Text {
		if r != '\t' && !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			result.Valid = false
			result.Issues = append(result.Issues, fmt.Sprintf("item contains non-printable character %U", r))
			break
		}
	}

	if n := utf8.RuneCountInString(item.Text); n > DefaultMaxItemLength {
		result.Valid = false
		result.Issues = append(result.Issues, fmt.Sprintf("item too long (%d chars, maximum %d)", n, DefaultMaxItemLength))
		result.Suggestions = append(result.Suggestions, "check that the file holds one item per line")
	}

	return result
}

// ValidateItems validates a batch of items and returns only the invalid results.
func ValidateItems(items []Item) []ValidationResult {
	var invalid []ValidationResult
	for _, item := range items {
		if res := ValidateItem(item); !res.Valid {
			invalid = append(invalid, res)
		}
	}
	return invalid
}
