package ctype

import "strings"

// DefaultSize is returned by InferSize when nothing in the type is recognized.
const DefaultSize = 4

// primitiveSizes is searched in order; the first substring found in the
// lower-cased type wins. Longer spellings come before the shorter spellings
// they contain ("uint64" before "int", "int16" before "int"). The original
// converter checked "int" before "uint64" and so sized 64-bit integers as 4.
var primitiveSizes = []struct {
	name string
	size uint64
}{
	{"long long", 8},
	{"uint64", 8},
	{"int64", 8},
	{"double", 8},
	{"uint32", 4},
	{"int32", 4},
	{"float", 4},
	{"uint16", 2},
	{"int16", 2},
	{"short", 2},
	{"uint8", 1},
	{"int8", 1},
	{"bool", 1},
	{"char", 1},
	{"int", 4},
}

// InferSize guesses the byte size of a normalized type token. Pointers are
// 8 bytes; arrays report DefaultSize because the element count is not
// resolved. It always returns a positive value.
func InferSize(typ string) uint64 {
	if strings.Contains(typ, "*") {
		return 8
	}
	if strings.Contains(typ, "[") {
		return DefaultSize
	}
	lower := strings.ToLower(strings.TrimSpace(typ))
	for _, p := range primitiveSizes {
		if strings.Contains(lower, p.name) {
			return p.size
		}
	}
	return DefaultSize
}
