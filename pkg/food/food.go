// Package food decides whether a set of detected labels shows delicious food.
package food

import "strings"

// keyword is matched case-insensitively against every label.
const keyword = "food"

// Verdict is the outcome of classifying a label set.
type Verdict int

const (
	// NotDelicious means no label mentioned food.
	NotDelicious Verdict = iota
	// Delicious means at least one label mentioned food.
	Delicious
)

// String returns the verdict name.
func (v Verdict) String() string {
	if v == Delicious {
		return "delicious"
	}
	return "not_delicious"
}

// HasDeliciousFood reports whether any label contains "food", ignoring case.
// An empty label set is never delicious.
func HasDeliciousFood(labels []string) bool {
	for _, label := range labels {
		if strings.Contains(strings.ToLower(label), keyword) {
			return true
		}
	}
	return false
}

// Classify returns the verdict for labels.
func Classify(labels []string) Verdict {
	if HasDeliciousFood(labels) {
		return Delicious
	}
	return NotDelicious
}
