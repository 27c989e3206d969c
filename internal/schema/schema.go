// Package schema defines the JSON wire form of a catalog: an array of
// structures keyed N, P, S, T and M, each member keyed N, T, O and S, with
// offsets and member sizes written as upper-case hex strings.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phobologic/dumpschema/internal/model"
)

// ErrMalformed is returned by Decode for documents that are valid JSON but
// not a valid catalog.
var ErrMalformed = errors.New("malformed catalog")

// Structure is the wire form of model.Structure.
type Structure struct {
	N string   `json:"N"`
	P string   `json:"P"`
	S uint64   `json:"S"`
	T string   `json:"T"`
	M []Member `json:"M"`
}

// Member is the wire form of model.Member.
type Member struct {
	N string `json:"N"`
	T string `json:"T"`
	O string `json:"O"`
	S string `json:"S"`
}

// FormatHex renders v as "0x" followed by upper-case hex digits without
// padding: 0x190, 0x4, 0x0.
func FormatHex(v uint64) string {
	return fmt.Sprintf("0x%X", v)
}

// ParseHex parses a "0x"-prefixed hex string in either case.
func ParseHex(s string) (uint64, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q is not a 0x hex value", ErrMalformed, s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return v, nil
}

// FromModel converts structures to their wire form. Members of a structure
// without members encode as an empty array, never null.
func FromModel(structures []model.Structure) []Structure {
	out := make([]Structure, 0, len(structures))
	for i := range structures {
		s := &structures[i]
		members := make([]Member, 0, len(s.Members))
		for _, m := range s.Members {
			members = append(members, Member{
				N: m.Name,
				T: m.Type,
				O: FormatHex(m.Offset),
				S: FormatHex(m.Size),
			})
		}
		out = append(out, Structure{
			N: s.Name,
			P: s.Parent,
			S: s.Size,
			T: string(s.Kind),
			M: members,
		})
	}
	return out
}

// ToModel converts wire structures back to model structures.
func ToModel(wire []Structure) ([]model.Structure, error) {
	out := make([]model.Structure, 0, len(wire))
	for i, w := range wire {
		kind := model.Kind(w.T)
		if kind != model.Class && kind != model.Struct {
			return nil, fmt.Errorf("%w: structure %d (%s): unknown kind %q", ErrMalformed, i, w.N, w.T)
		}
		s := model.Structure{
			Name:    w.N,
			Parent:  w.P,
			Kind:    kind,
			Size:    w.S,
			Members: make([]model.Member, 0, len(w.M)),
		}
		for _, wm := range w.M {
			offset, err := ParseHex(wm.O)
			if err != nil {
				return nil, fmt.Errorf("%s.%s offset: %w", w.N, wm.N, err)
			}
			size, err := ParseHex(wm.S)
			if err != nil {
				return nil, fmt.Errorf("%s.%s size: %w", w.N, wm.N, err)
			}
			s.Members = append(s.Members, model.Member{Name: wm.N, Type: wm.T, Offset: offset, Size: size})
		}
		out = append(out, s)
	}
	return out, nil
}

// Encode writes structures as an indented JSON array. Type names are written
// verbatim, so "TArray<uint8_t>" is not escaped.
func Encode(w io.Writer, structures []model.Structure) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromModel(structures)); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return nil
}

// Decode reads a catalog written by Encode.
func Decode(r io.Reader) ([]model.Structure, error) {
	var wire []Structure
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return ToModel(wire)
}
