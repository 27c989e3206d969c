package extract

import "strings"

// DefaultSkipMembers are name prefixes of padding, reserved and
// compiler-generated members. They never carry program-visible data.
var DefaultSkipMembers = []string{
	"Pad_", "pad_", "UnknownData", "UberGraphFrame",
	"__padding", "Padding", "Reserved", "bPad_",
}

// DefaultSkipStructures are substrings marking template instantiations and
// generated event glue rather than genuine types.
var DefaultSkipStructures = []string{"<", ">", "Param_", "Parms", "EventGraph", "__"}

func (e *Extractor) skipMember(name string) bool {
	for _, p := range e.skipMembers {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (e *Extractor) validName(name string) bool {
	if len(name) < 2 {
		return false
	}
	for _, s := range e.skipStructures {
		if strings.Contains(name, s) {
			return false
		}
	}
	return true
}

// CleanParent strips namespace qualification and template arguments from a
// base type name: "SDK::TBase<int>" becomes "TBase".
func CleanParent(parent string) string {
	if i := strings.Index(parent, "<"); i >= 0 {
		parent = parent[:i]
	}
	if i := strings.LastIndex(parent, "::"); i >= 0 {
		parent = parent[i+2:]
	}
	return strings.TrimSpace(parent)
}

func isAccessLabel(line string) bool {
	switch line {
	case "public:", "private:", "protected:":
		return true
	}
	return false
}
