package ctype

import (
	"fmt"
	"strings"
	"unicode"
)

var pointerHints = []string{"component", "actor", "object", "class", "ptr"}

// GuessType invents a plausible type for a member that was declared only by
// name and size. The result is a hint for readers of the schema, not a
// resolved type: unknown sizes fall back to a byte array of that length.
func GuessType(name string, size uint64) string {
	lower := strings.ToLower(name)

	switch size {
	case 0x1:
		if strings.HasPrefix(name, "b") {
			return "bool"
		}
		return "uint8_t"
	case 0x2:
		return "uint16_t"
	case 0x4:
		if strings.Contains(lower, "float") {
			return "float"
		}
		return "int32_t"
	case 0x8:
		for _, hint := range pointerHints {
			if strings.Contains(lower, hint) {
				return guessPointer(name)
			}
		}
		return "uint64_t"
	case 0x10:
		if strings.Contains(lower, "string") || strings.Contains(lower, "name") {
			return "FString"
		}
		return "TArray<uint8_t>"
	case 0x20:
		return "TArray<uint8_t>"
	default:
		return fmt.Sprintf("uint8_t[%d]", size)
	}
}

// guessPointer builds an engine-style pointer type from the first
// capitalized word of an underscore-separated name.
func guessPointer(name string) string {
	for _, word := range strings.Split(name, "_") {
		if word == "" || !unicode.IsUpper(rune(word[0])) {
			continue
		}
		if strings.HasPrefix(word, "U") {
			return word + "*"
		}
		return "A" + word + "*"
	}
	return "UObject*"
}
