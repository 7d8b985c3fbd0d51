// Package scoring decides whether a submitted selection answers a question.
package scoring

// IsCorrect reports whether selected and correct hold exactly the same keys.
// Order and duplicates are ignored; there is no partial credit.
func IsCorrect(selected, correct []string) bool {
	want := toSet(correct)
	got := toSet(selected)
	return setEqual(want, got)
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
