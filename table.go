package charref

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
)

var (
	ErrInvalidTable    = errors.New("invalid entity table")
	ErrInvalidEntity   = errors.New("invalid entity spelling")
	ErrDuplicateEntity = errors.New("duplicate entity spelling")
)

// Entity is a named reference: its canonical spelling including the leading '&'
// and the trailing ';', and the UTF-8 bytes it decodes to.
type Entity struct {
	Spelling   string
	Characters []byte
}

// Table maps entity spellings to decoded bytes. A Table is immutable once built
// and safe for concurrent use. The nil *Table behaves like [HTML5].
type Table struct {
	entities []Entity // sorted by Spelling
	html5    bool
}

var html5Table = &Table{html5: true}

// html5Extra holds WHATWG entities missing from goldmark's generated set.
var html5Extra = &Table{entities: []Entity{
	{Spelling: "&Abreve;", Characters: []byte("\u0102")},
}}

// HTML5 returns the table of named character references defined by the WHATWG
// HTML standard.
func HTML5() *Table {
	return html5Table
}

// NewTable builds a table from entities. Every spelling must be '&', a name of
// 2 to 30 bytes without spaces or ';', and a final ';'.
func NewTable(entities ...Entity) (*Table, error) {
	t := &Table{entities: make([]Entity, 0, len(entities))}
	for _, e := range entities {
		if err := checkSpelling(e.Spelling); err != nil {
			return nil, err
		}
		t.entities = append(t.entities, Entity{Spelling: e.Spelling, Characters: bytes.Clone(e.Characters)})
	}

	slices.SortFunc(t.entities, func(a, b Entity) int {
		return strings.Compare(a.Spelling, b.Spelling)
	})
	for i := 1; i < len(t.entities); i++ {
		if t.entities[i-1].Spelling == t.entities[i].Spelling {
			return nil, fmt.Errorf("[charref] %q: %w", t.entities[i].Spelling, ErrDuplicateEntity)
		}
	}

	return t, nil
}

func checkSpelling(s string) error {
	name, ok := strings.CutPrefix(s, "&")
	if ok {
		name, ok = strings.CutSuffix(name, ";")
	}
	if !ok || len(name) < entityMinLength || len(name) >= entityMaxLength || strings.ContainsAny(name, " ;") {
		return fmt.Errorf("[charref] %q: %w", s, ErrInvalidEntity)
	}
	return nil
}

// jsonEntity is one record of the WHATWG entities.json file.
type jsonEntity struct {
	Codepoints []rune `json:"codepoints"`
	Characters string `json:"characters"`
}

// LoadTable reads a table in the format of the WHATWG entities.json file:
//
//	{"&amp;": {"codepoints": [38], "characters": "&"}, ...}
//
// Legacy spellings without a trailing ';' are skipped, as a reference is only
// decoded when terminated by ';'.
func LoadTable(r io.Reader) (*Table, error) {
	var raw map[string]jsonEntity
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("[charref] decoding entities: %w: %w", ErrInvalidTable, err)
	}

	entities := make([]Entity, 0, len(raw))
	skipped := 0
	for spelling, e := range raw {
		if !strings.HasSuffix(spelling, ";") {
			Logger().Debug("skipping entity without terminator", zap.String("entity", spelling))
			skipped++
			continue
		}

		characters := []byte(e.Characters)
		if len(characters) == 0 {
			for _, cp := range e.Codepoints {
				if !utf8.ValidRune(cp) {
					return nil, fmt.Errorf("[charref] %q has codepoint %#x: %w", spelling, cp, ErrInvalidTable)
				}
				characters = utf8.AppendRune(characters, cp)
			}
		}
		if len(characters) == 0 {
			return nil, fmt.Errorf("[charref] %q has no characters: %w", spelling, ErrInvalidTable)
		}

		entities = append(entities, Entity{Spelling: spelling, Characters: characters})
	}

	t, err := NewTable(entities...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}

	Logger().Debug("loaded entity table", zap.Int("entities", len(entities)), zap.Int("skipped", skipped))
	return t, nil
}

// Lookup returns the decoded bytes for an exact spelling such as "&amp;".
// The returned slice is shared with the table and must not be modified.
func (t *Table) Lookup(spelling []byte) ([]byte, bool) {
	if t == nil || t.html5 {
		if len(spelling) < 2 || spelling[0] != '&' || spelling[len(spelling)-1] != ';' {
			return nil, false
		}
		if e, ok := util.LookUpHTML5EntityByName(string(spelling[1 : len(spelling)-1])); ok {
			return e.Characters, true
		}
		return html5Extra.search(spelling)
	}
	return t.search(spelling)
}

func (t *Table) search(spelling []byte) ([]byte, bool) {
	i, found := slices.BinarySearchFunc(t.entities, spelling, func(e Entity, s []byte) int {
		return strings.Compare(e.Spelling, string(s))
	})
	if !found {
		return nil, false
	}
	return t.entities[i].Characters, true
}
