// Package block defines block states, their canonical string form and the
// property rewriting applied by rigid transforms.
package block

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	gonbt "github.com/Tnze/go-mc/nbt"
)

// State represents a block with its properties, e.g.
// minecraft:oak_stairs[facing=north,half=bottom].
type State struct {
	Name       string            // e.g., "minecraft:oak_stairs"
	Properties map[string]string // e.g., {"facing": "north", "half": "bottom"}
}

// Air is the empty state used at palette index 0 of Java-format regions.
var Air = State{Name: "minecraft:air"}

// New creates a State with a copy of the given properties.
func New(name string, properties map[string]string) *State {
	props := make(map[string]string, len(properties))
	maps.Copy(props, properties)
	return &State{Name: name, Properties: props}
}

// Clone creates a deep copy of the State.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return New(s.Name, s.Properties)
}

// IsAir reports whether the state is an air variant.
func (s *State) IsAir() bool {
	if s == nil {
		return true
	}
	switch s.Name {
	case "", "air", "minecraft:air", "minecraft:void_air", "minecraft:cave_air":
		return len(s.Properties) == 0
	default:
		return false
	}
}

// Equal reports whether two states have the same name and property map.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Name == o.Name && maps.Equal(s.Properties, o.Properties)
}

// String returns the canonical string form of the state: properties sorted
// lexicographically by key, no whitespace.
func (s *State) String() string {
	if s == nil {
		return ""
	}
	if len(s.Properties) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteString(s.Name)
	buf.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(s.Properties[k])
	}
	buf.WriteByte(']')
	return buf.String()
}

// Key returns the palette intern key for the state. It is identical to the
// canonical String form.
func (s *State) Key() string {
	return s.String()
}

// ParseError describes a block-state string that violates the grammar.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse block state: %s at offset %d", e.Reason, e.Offset)
}

// Parse parses a block-state string of the form ns:name[k=v,...]{snbt}.
// The bracket and brace sections are optional. The returned map holds the
// decoded NBT suffix, or nil if none was present.
func Parse(s string) (*State, map[string]any, error) {
	nameEnd := strings.IndexAny(s, "[{")
	if nameEnd == -1 {
		nameEnd = len(s)
	}
	name := s[:nameEnd]
	if err := checkName(name); err != nil {
		return nil, nil, err
	}

	state := &State{Name: name, Properties: map[string]string{}}
	rest := s[nameEnd:]
	pos := nameEnd

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return nil, nil, &ParseError{Reason: "unterminated property list", Offset: pos}
		}
		if err := parseProperties(rest[1:end], pos+1, state.Properties); err != nil {
			return nil, nil, err
		}
		pos += end + 1
		rest = rest[end+1:]
	}

	var data map[string]any
	if strings.HasPrefix(rest, "{") {
		if !strings.HasSuffix(rest, "}") {
			return nil, nil, &ParseError{Reason: "unterminated nbt suffix", Offset: pos}
		}
		m, err := parseSNBT(rest)
		if err != nil {
			return nil, nil, &ParseError{Reason: fmt.Sprintf("bad nbt suffix: %v", err), Offset: pos}
		}
		data = m
		rest = ""
	}
	if rest != "" {
		return nil, nil, &ParseError{Reason: fmt.Sprintf("trailing data %q", rest), Offset: pos}
	}
	return state, data, nil
}

// MustParse parses a block-state string without an NBT suffix and panics on
// malformed input. Intended for static tables and tests.
func MustParse(s string) *State {
	state, _, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return state
}

func parseProperties(s string, base int, out map[string]string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	offset := base
	for part := range strings.SplitSeq(s, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return &ParseError{Reason: fmt.Sprintf("property %q missing '='", strings.TrimSpace(part)), Offset: offset}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return &ParseError{Reason: "empty property key", Offset: offset}
		}
		if !validToken(value) {
			return &ParseError{Reason: fmt.Sprintf("bad property value %q", value), Offset: offset}
		}
		out[key] = value
		offset += len(part) + 1
	}
	return nil
}

// parseSNBT decodes a stringified NBT compound into a plain map by round-
// tripping it through go-mc's binary form.
func parseSNBT(s string) (map[string]any, error) {
	data, err := gonbt.Marshal(gonbt.StringifiedMessage(s))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := gonbt.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// checkName validates ns:name against [a-z0-9_.-]+:[a-z0-9_/.-]+. A bare
// name with no namespace is accepted; Bedrock palettes use those.
func checkName(name string) error {
	if name == "" {
		return &ParseError{Reason: "empty block name"}
	}
	ns, path, hasNS := strings.Cut(name, ":")
	pathStart := len(ns) + 1
	if !hasNS {
		path, ns = ns, ""
		pathStart = 0
	}
	for i := 0; i < len(ns); i++ {
		if !nameByte(ns[i], false) {
			return &ParseError{Reason: fmt.Sprintf("bad namespace character %q", ns[i]), Offset: i}
		}
	}
	if path == "" {
		return &ParseError{Reason: "empty block path", Offset: len(ns)}
	}
	for i := 0; i < len(path); i++ {
		if !nameByte(path[i], true) {
			return &ParseError{Reason: fmt.Sprintf("bad name character %q", path[i]), Offset: pathStart + i}
		}
	}
	return nil
}

func nameByte(c byte, path bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '.', c == '-':
		return true
	case c == '/':
		return path
	default:
		return false
	}
}

func validToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}
