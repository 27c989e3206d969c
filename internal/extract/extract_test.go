package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/phobologic/dumpschema/internal/model"
)

func newExtractor(t *testing.T, d model.Dialect) *Extractor {
	t.Helper()
	e, err := New(DefaultOptions(d))
	if err != nil {
		t.Fatalf("New(%s): %v", d, err)
	}
	return e
}

func findStructure(t *testing.T, structures []model.Structure, name string) model.Structure {
	t.Helper()
	for _, s := range structures {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("structure %q not found in %d structures", name, len(structures))
	return model.Structure{}
}

const sdkSample = `#pragma once

// Class Engine.Pawn
// 0x0010 (0x0198 - 0x0188)
class APawn : public AActor
{
public:
	int32 Health; // 0x190(0x4)
	uint8 Pad_0128[0x4]; // 0x194(0x4)
	float Speed; // 0x188
};

struct FVector final
{
public:
	float X; // Offset: 0x0, Size: 0x4
	float Y; // Offset: 0x4
	float Z; // 0x0008(0x0004)(Edit, BlueprintVisible)
};
`

func TestSDKExtractsStructures(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	structures, st := e.Extract(sdkSample)
	if len(structures) != 2 {
		t.Fatalf("expected 2 structures, got %d: %+v", len(structures), structures)
	}

	pawn := structures[0]
	if pawn.Name != "APawn" || pawn.Parent != "AActor" || pawn.Kind != model.Class {
		t.Errorf("pawn header: %+v", pawn)
	}
	if len(pawn.Members) != 2 {
		t.Fatalf("expected 2 pawn members (padding excluded), got %+v", pawn.Members)
	}
	if pawn.Members[0].Name != "Speed" || pawn.Members[1].Name != "Health" {
		t.Errorf("members not sorted by offset: %+v", pawn.Members)
	}
	if pawn.Size != 0x198 {
		t.Errorf("pawn size = %#x, want 0x198 from header comment", pawn.Size)
	}

	vec := structures[1]
	if vec.Name != "FVector" || vec.Kind != model.Struct || vec.Parent != "" {
		t.Errorf("vector header: %+v", vec)
	}
	if len(vec.Members) != 3 {
		t.Fatalf("expected 3 vector members, got %+v", vec.Members)
	}
	if vec.Size != 0xC {
		t.Errorf("vector size = %#x, want 0xC", vec.Size)
	}

	if st.Classes != 1 || st.Structs != 1 || st.Members != 5 {
		t.Errorf("stats: %+v", st)
	}
	if st.Padding != 1 {
		t.Errorf("padding = %d, want 1", st.Padding)
	}
	if st.Lines != strings.Count(sdkSample, "\n")+1 {
		t.Errorf("lines = %d", st.Lines)
	}
}

func TestHealthScenario(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	structures, _ := e.Extract("class Pawn\n{\n\tint32 Health; // 0x190(0x4)\n};\n")
	if len(structures) != 1 {
		t.Fatalf("expected 1 structure, got %d", len(structures))
	}
	s := structures[0]
	if s.Name != "Pawn" || s.Parent != "" {
		t.Errorf("header: %+v", s)
	}
	want := model.Member{Name: "Health", Type: "int32", Offset: 0x190, Size: 0x4}
	if len(s.Members) != 1 || s.Members[0] != want {
		t.Errorf("members = %+v, want [%+v]", s.Members, want)
	}
	if s.Size != 0x194 {
		t.Errorf("size = %#x, want 0x194", s.Size)
	}
}

func TestInferredSize(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	structures, _ := e.Extract("class Movement\n{\n\tfloat Speed; // 0x28\n\tclass AActor* Owner; // 0x30\n};\n")
	s := findStructure(t, structures, "Movement")
	if len(s.Members) != 2 {
		t.Fatalf("members: %+v", s.Members)
	}
	if s.Members[0].Size != 4 || s.Members[0].Type != "float" {
		t.Errorf("Speed = %+v, want float of size 4", s.Members[0])
	}
	if s.Members[1].Size != 8 || s.Members[1].Type != "AActor*" {
		t.Errorf("Owner = %+v, want AActor* of size 8", s.Members[1])
	}
}

func TestBitfieldMembers(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	text := "class ABits : public UObject\n{\npublic:\n" +
		"\tuint8 bCanBeDamaged : 1; // 0x005A(0x0001)(BitIndex: 0x00)\n" +
		"\tuint8 bHidden : 1; // 0x005A(0x0001)(BitIndex: 0x01)\n" +
		"\tuint8 Pad_5B[0x1]; // 0x005B(0x0001)\n" +
		"};\n"
	structures, _ := e.Extract(text)
	s := findStructure(t, structures, "ABits")

	want := []model.Member{
		{Name: "bCanBeDamaged", Type: "uint8", Offset: 0x5A, Size: 1},
		{Name: "bHidden", Type: "uint8", Offset: 0x5A, Size: 1},
	}
	if len(s.Members) != len(want) {
		t.Fatalf("members = %+v, want %+v", s.Members, want)
	}
	for i := range want {
		if s.Members[i] != want[i] {
			t.Errorf("member %d = %+v, want %+v", i, s.Members[i], want[i])
		}
	}
	if dups := s.DuplicateMembers(); len(dups) != 0 {
		t.Errorf("bitfields packed into one byte reported as duplicates: %v", dups)
	}
}

func TestMemberNameMustBeIdentifier(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	if raw, ok := e.match("uint8 Flags 1; // 0x10(0x1)"); ok {
		t.Errorf("matched a numeric member name: %+v", raw)
	}
}

func TestExplicitSize(t *testing.T) {
	t.Parallel()

	pawnBody := "class APawn : public AActor\n{\npublic:\n\tint32 Health; // 0x190(0x4)\n};\n"
	tests := []struct {
		name    string
		dialect model.Dialect
		text    string
		want    uint64
	}{
		{
			"sizeof smaller than members",
			model.SDK,
			pawnBody + "static_assert(sizeof(APawn) == 0x010, \"Wrong size on APawn\");\n",
			0x10,
		},
		{
			"qualified sizeof",
			model.SDK,
			pawnBody + "static_assert(sizeof(SDK::APawn) == 0x0198, \"Wrong size on APawn\");\n",
			0x198,
		},
		{
			"sizeof beats header comment",
			model.SDK,
			"// 0x0020 (0x0200 - 0x01E0)\n" + pawnBody + "static_assert(sizeof(APawn) == 0x0198, \"\");\n",
			0x198,
		},
		{
			"header comment smaller than members",
			model.SDK,
			"// 0x0008\n" + pawnBody,
			0x8,
		},
		{
			"trailing comment on declaration line",
			model.Offsets,
			"struct FInfo { // 0x10\n\tstatic const uint32 Value = 0x20; // (0x8)\n};\n",
			0x10,
		},
		{
			"no annotation uses member bound",
			model.SDK,
			pawnBody,
			0x194,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newExtractor(t, tt.dialect)
			structures, _ := e.Extract(tt.text)
			if len(structures) != 1 {
				t.Fatalf("expected 1 structure, got %+v", structures)
			}
			if got := structures[0].Size; got != tt.want {
				t.Errorf("size = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestMemberPatternPriority(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	tests := []struct {
		line string
		want rawMember
	}{
		{"int32 A; // 0x10(0x4)", rawMember{typ: "int32", name: "A", offset: "10", size: "4"}},
		{"int32 A; // 0x10 (0x4)", rawMember{typ: "int32", name: "A", offset: "10", size: "4"}},
		{"int32 A; // 0x10", rawMember{typ: "int32", name: "A", offset: "10"}},
		{"int32 A; // Offset: 0x10, Size: 0x8", rawMember{typ: "int32", name: "A", offset: "10", size: "8"}},
		{"int32 A; // Offset: 0x10", rawMember{typ: "int32", name: "A", offset: "10"}},
		{"TMap<FName, int32> Map; // 0x20(0x50)", rawMember{typ: "TMap<FName, int32>", name: "Map", offset: "20", size: "50"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			got, ok := e.match(tt.line)
			if !ok {
				t.Fatalf("no pattern matched %q", tt.line)
			}
			got.typ = strings.TrimSpace(got.typ)
			if got != tt.want {
				t.Errorf("match(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}

	for _, line := range []string{"void Foo();", "int32 A;", "static class UClass* StaticClass();", "// 0x10"} {
		if _, ok := e.match(line); ok {
			t.Errorf("match(%q) should not match", line)
		}
	}
}

func TestPaddingMembersExcluded(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	names := []string{"Pad_0128", "pad_1", "UnknownData_00", "UberGraphFrame", "__padding", "Padding_2", "Reserved1", "bPad_3"}
	var b strings.Builder
	b.WriteString("class Holder\n{\n")
	for i, n := range names {
		b.WriteString("\tuint8 " + n + "; // 0x" + string(rune('0'+i)) + "(0x1)\n")
	}
	b.WriteString("\tuint8 Kept; // 0x9(0x1)\n};\n")

	structures, st := e.Extract(b.String())
	s := findStructure(t, structures, "Holder")
	if len(s.Members) != 1 || s.Members[0].Name != "Kept" {
		t.Errorf("members = %+v, want only Kept", s.Members)
	}
	if st.Padding != len(names) {
		t.Errorf("padding = %d, want %d", st.Padding, len(names))
	}
}

func TestExtraSkipPrefixes(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions(model.SDK)
	opts.SkipMembers = []string{"Internal"}
	opts.SkipStructures = []string{"Deprecated"}
	e, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}

	text := "class Keep\n{\n\tint32 InternalCounter; // 0x0(0x4)\n\tint32 Value; // 0x4(0x4)\n};\n" +
		"class OldDeprecated\n{\n\tint32 Value; // 0x0(0x4)\n};\n"
	structures, st := e.Extract(text)
	if len(structures) != 1 || structures[0].Name != "Keep" {
		t.Fatalf("structures: %+v", structures)
	}
	if len(structures[0].Members) != 1 || structures[0].Members[0].Name != "Value" {
		t.Errorf("members: %+v", structures[0].Members)
	}
	if st.Rejected != 1 {
		t.Errorf("rejected = %d, want 1", st.Rejected)
	}
}

func TestRejectedStructureNames(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	body := "\n{\n\tint32 Value; // 0x0(0x4)\n};\n"
	names := []string{"A", "Foo__Bar", "Actor_Param_X", "Actor_ReceiveTick_Parms", "ExecuteUbergraph_EventGraph"}
	var text string
	for _, n := range names {
		text += "class " + n + body
	}
	text += "class Valid" + body

	structures, st := e.Extract(text)
	if len(structures) != 1 || structures[0].Name != "Valid" {
		t.Fatalf("structures = %+v, want only Valid", structures)
	}
	if st.Rejected != len(names) {
		t.Errorf("rejected = %d, want %d", st.Rejected, len(names))
	}
}

func TestSDKEmptyStructureEmitted(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	text := "class UInterface : public UObject\n{\n};\n\nclass Next\n{\n\tint32 A; // 0x0(0x4)\n};\n"
	structures, _ := e.Extract(text)
	if len(structures) != 2 {
		t.Fatalf("expected 2 structures, got %+v", structures)
	}
	empty := findStructure(t, structures, "UInterface")
	if len(empty.Members) != 0 || empty.Size != 0 {
		t.Errorf("empty structure: %+v", empty)
	}
	next := findStructure(t, structures, "Next")
	if len(next.Members) != 1 {
		t.Errorf("empty body swallowed the next structure: %+v", next)
	}
}

func TestParentCleaning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"AActor", "AActor"},
		{"SDK::AActor", "AActor"},
		{"UE::Core::UObject", "UObject"},
		{"TBase<int32>", "TBase"},
		{"SDK::TBase<SDK::Foo>", "TBase"},
	}
	for _, tt := range tests {
		if got := CleanParent(tt.in); got != tt.want {
			t.Errorf("CleanParent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	e := newExtractor(t, model.SDK)
	structures, _ := e.Extract("class UDerived : public SDK::TBase<int32>\n{\n\tint32 A; // 0x0(0x4)\n};\n")
	if len(structures) != 1 || structures[0].Parent != "TBase" {
		t.Errorf("structures = %+v, want parent TBase", structures)
	}
}

func TestStableOffsetOrder(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	text := "class Union\n{\n\tint32 B; // 0x8(0x4)\n\tfloat First; // 0x0(0x4)\n\tint32 Second; // 0x0(0x4)\n\tuint8 Third; // 0x0(0x1)\n};\n"
	structures, _ := e.Extract(text)
	s := findStructure(t, structures, "Union")

	want := []string{"First", "Second", "Third", "B"}
	if len(s.Members) != len(want) {
		t.Fatalf("members: %+v", s.Members)
	}
	for i, name := range want {
		if s.Members[i].Name != name {
			t.Errorf("member %d = %s, want %s", i, s.Members[i].Name, name)
		}
	}
	for i := 1; i < len(s.Members); i++ {
		if s.Members[i-1].Offset > s.Members[i].Offset {
			t.Errorf("members out of order at %d", i)
		}
	}
}

func TestDuplicateMembersKept(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	structures, _ := e.Extract("class Dup\n{\n\tint32 A; // 0x0(0x4)\n\tint32 A; // 0x4(0x4)\n};\n")
	s := findStructure(t, structures, "Dup")
	if len(s.Members) != 2 {
		t.Errorf("duplicates must not be merged: %+v", s.Members)
	}
}

func TestNumericAnomalySkipped(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)

	text := "class Big\n{\n\tint32 Huge; // 0x1FFFFFFFFFFFFFFFFF(0x4)\n\tint32 Zero; // 0x4(0x0)\n\tint32 Ok; // 0x8(0x4)\n};\n"
	structures, st := e.Extract(text)
	s := findStructure(t, structures, "Big")
	if len(s.Members) != 1 || s.Members[0].Name != "Ok" {
		t.Errorf("members = %+v, want only Ok", s.Members)
	}
	if st.Anomalies != 2 {
		t.Errorf("anomalies = %d, want 2", st.Anomalies)
	}
}

const offsetsSample = `// Generated offsets
namespace Offsets
{
class AFortPawn : public APawn {
	static const uint32_t bIsDying = 0x728; // (0x1)
	static const uint32_t CurrentWeapon = 0x990; // (0x8)
	static const uint32_t Mesh = 0x330; // (0x8)
	static const uint32_t Pad_0001 = 0x10; // (0x8)
};

struct FEmpty {
	// nothing here
};

struct FNested {
	static const uint32 Outer = 0x0; // (0x4)
	struct Inner {
		static const uint32 Deep = 0x4; // (0x4)
	};
};

class Param__Glue {
	static const uint32_t A = 0x0; // (0x4)
};
}
`

func TestOffsetsExtractsStructures(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.Offsets)

	structures, st := e.Extract(offsetsSample)
	if len(structures) != 2 {
		t.Fatalf("expected 2 structures, got %d: %+v", len(structures), structures)
	}

	pawn := findStructure(t, structures, "AFortPawn")
	if pawn.Parent != "APawn" || pawn.Kind != model.Class {
		t.Errorf("pawn header: %+v", pawn)
	}
	if len(pawn.Members) != 3 {
		t.Fatalf("pawn members: %+v", pawn.Members)
	}
	want := []model.Member{
		{Name: "Mesh", Type: "uint64_t", Offset: 0x330, Size: 0x8},
		{Name: "bIsDying", Type: "bool", Offset: 0x728, Size: 0x1},
		{Name: "CurrentWeapon", Type: "uint64_t", Offset: 0x990, Size: 0x8},
	}
	for i := range want {
		if pawn.Members[i] != want[i] {
			t.Errorf("member %d = %+v, want %+v", i, pawn.Members[i], want[i])
		}
	}
	if pawn.Size != 0x998 {
		t.Errorf("pawn size = %#x, want 0x998", pawn.Size)
	}

	nested := findStructure(t, structures, "FNested")
	if nested.Kind != model.Struct || len(nested.Members) != 2 {
		t.Errorf("nested members stay with the outer structure: %+v", nested)
	}

	if st.Empty != 1 {
		t.Errorf("empty = %d, want 1 (FEmpty dropped)", st.Empty)
	}
	if st.Rejected != 1 {
		t.Errorf("rejected = %d, want 1 (Param__Glue)", st.Rejected)
	}
}

func TestOffsetsOneLineAndUnterminated(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.Offsets)

	text := "struct FOne { static const uint32 A = 0x4; // (0x4) };\nclass Open {\n\tstatic const uint32 B = 0x0; // (0x4)\n"
	structures, st := e.Extract(text)
	if len(structures) != 1 || structures[0].Name != "FOne" {
		t.Fatalf("structures: %+v", structures)
	}
	if structures[0].Size != 0x8 {
		t.Errorf("size = %#x, want 0x8", structures[0].Size)
	}
	if st.Unterminated != 1 {
		t.Errorf("unterminated = %d, want 1", st.Unterminated)
	}
}

func TestEmptyPolicyPerDialect(t *testing.T) {
	t.Parallel()

	sdk := newExtractor(t, model.SDK)
	structures, _ := sdk.Extract("class Hollow\n{\n};\n")
	if len(structures) != 1 {
		t.Errorf("SDK dialect must emit empty structures, got %+v", structures)
	}

	offsets := newExtractor(t, model.Offsets)
	structures, _ = offsets.Extract("class Hollow {\n};\n")
	if len(structures) != 0 {
		t.Errorf("Offsets dialect must drop empty structures, got %+v", structures)
	}

	opts := DefaultOptions(model.Offsets)
	opts.DropEmpty = false
	kept, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	structures, _ = kept.Extract("class Hollow {\n};\n")
	if len(structures) != 1 {
		t.Errorf("DropEmpty=false must keep empty structures, got %+v", structures)
	}
}

func TestNewUnsupportedDialect(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Dialect: model.Auto})
	var ude *UnsupportedDialectError
	if !errors.As(err, &ude) {
		t.Fatalf("expected UnsupportedDialectError, got %v", err)
	}
	if ude.Dialect != "auto" {
		t.Errorf("dialect = %q", ude.Dialect)
	}
}

func TestExtractEmptyText(t *testing.T) {
	t.Parallel()
	e := newExtractor(t, model.SDK)
	structures, st := e.Extract("")
	if len(structures) != 0 || st.Lines != 0 {
		t.Errorf("empty text: %+v %+v", structures, st)
	}
}
