package lang

import (
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".h", "cpp"},
		{".hpp", "cpp"},
		{".cpp", ""},
		{".py", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestExtensions(t *testing.T) {
	t.Parallel()

	got := Extensions()
	if len(got) != 2 || got[0] != ".h" || got[1] != ".hpp" {
		t.Errorf("Extensions() = %v, want [.h .hpp]", got)
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	c, ok := Languages[CPP]
	if !ok {
		t.Fatal("cpp language not registered")
	}
	if c.GetLanguage() == nil {
		t.Error("cpp language is nil")
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p := Languages[CPP].NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
}

func TestGetQuery(t *testing.T) {
	t.Parallel()

	c := Languages[CPP]
	q, err := c.GetQuery()
	if err != nil {
		t.Fatalf("GetQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
	for _, name := range []string{"name", "structure.class", "structure.struct", "field", "assert", "comment"} {
		found := false
		for i := uint32(0); i < q.CaptureCount(); i++ {
			if q.CaptureNameForId(i) == name {
				found = true
			}
		}
		if !found {
			t.Errorf("capture %q missing from query", name)
		}
	}
}
