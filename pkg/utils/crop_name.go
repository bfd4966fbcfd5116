package utils

import "strings"

// MatchCrop resolves user input against the known crop names. An exact match
// wins; otherwise a case- and whitespace-insensitive match is tried. The
// input is returned unchanged when nothing matches so that the caller's
// filter yields an empty selection rather than a silent substitution.
func MatchCrop(input string, known []string) string {
	for _, k := range known {
		if k == input {
			return k
		}
	}
	folded := foldCrop(input)
	for _, k := range known {
		if foldCrop(k) == folded {
			return k
		}
	}
	return input
}

func foldCrop(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
