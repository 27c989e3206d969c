package ctype

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"int32", "int32"},
		{"  float  ", "float"},
		{"unsigned char", "uint8"},
		{"unsigned  short", "uint16"},
		{"unsigned int", "uint32"},
		{"unsigned long long", "uint64"},
		{"signed char", "int8"},
		{"short", "int16"},
		{"long long", "int64"},
		{"class UObject*", "UObject*"},
		{"struct FVector", "FVector"},
		{"enum class EMovementMode", "EMovementMode"},
		{"TArray<class AActor*>", "TArray<AActor*>"},
		{"TMap<class FName,\n\tint32>", "TMap<FName, int32>"},
		{"unsigned int64", "unsigned int64"},
		{"ushort", "ushort"},
		{"class", "class"},
		{"FName", "FName"},
		{"   ", "   "},
		{"\t", "\t"},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"unsigned long long", "long long long", "short int", "enum class Foo",
		"class  class UObject *", "TWeakObjectPtr<struct FFoo>", "signed char",
		"unsigned char[0x10]", "float", "uint8", "  ", "\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		if once == "" {
			t.Errorf("Normalize(%q) returned empty", in)
		}
	}
}

func TestInferSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want uint64
	}{
		{"UObject*", 8},
		{"TArray<AActor*>", 8},
		{"int32[4]", 4},
		{"bool", 1},
		{"char", 1},
		{"uint8", 1},
		{"int8", 1},
		{"uint16", 2},
		{"int16", 2},
		{"uint32", 4},
		{"int32", 4},
		{"int", 4},
		{"float", 4},
		{"uint64", 8},
		{"int64", 8},
		{"double", 8},
		{"long long", 8},
		{"FVector", DefaultSize},
		{"", DefaultSize},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := InferSize(tt.in); got != tt.want {
				t.Errorf("InferSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestGuessType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size uint64
		want string
	}{
		{"bIsDying", 0x1, "bool"},
		{"TeamIndex", 0x1, "uint8_t"},
		{"Flags", 0x2, "uint16_t"},
		{"ProjectileFloatSpeed", 0x4, "float"},
		{"KillScore", 0x4, "int32_t"},
		{"RootComponent", 0x8, "ARootComponent*"},
		{"owning_UWorld_ptr", 0x8, "UWorld*"},
		{"object_ptr", 0x8, "UObject*"},
		{"Timestamp", 0x8, "uint64_t"},
		{"PlayerName", 0x10, "FString"},
		{"BoneArray", 0x10, "TArray<uint8_t>"},
		{"Levels", 0x20, "TArray<uint8_t>"},
		{"Blob", 0x30, "uint8_t[48]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GuessType(tt.name, tt.size); got != tt.want {
				t.Errorf("GuessType(%q, %#x) = %q, want %q", tt.name, tt.size, got, tt.want)
			}
		})
	}
}
