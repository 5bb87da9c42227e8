package jsmin

import (
	"encoding/json"
)

// IndexMapOffset is a position in, or the extent of, generated output. Line and Column are 0-based and Column is in UTF-16 code units.
type IndexMapOffset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// NewIndexMapOffset returns the extent of text, which is the position just past its end.
func NewIndexMapOffset(text []byte) IndexMapOffset {
	lines, col := UTF16LastLine(text)
	return IndexMapOffset{lines, col}
}

// Add returns the offset advanced by the extent of a following chunk.
func (o IndexMapOffset) Add(size IndexMapOffset) IndexMapOffset {
	if 0 < size.Line {
		return IndexMapOffset{o.Line + size.Line, size.Column}
	}
	return IndexMapOffset{o.Line, o.Column + size.Column}
}

// IndexMapSection is a section of an index map.
type IndexMapSection struct {
	Offset IndexMapOffset `json:"offset"`
	Map    *SourceMap     `json:"map"`
}

// IndexMap is a source map that combines the maps of consecutive output chunks using sections.
// Maps and filler must be added in output order.
type IndexMap struct {
	Version  int               `json:"version"`
	File     string            `json:"file,omitempty"`
	Sections []IndexMapSection `json:"sections"`

	offset IndexMapOffset
}

// NewIndexMap returns a new empty IndexMap.
func NewIndexMap(file string) *IndexMap {
	return &IndexMap{
		Version:  3,
		File:     file,
		Sections: []IndexMapSection{},
	}
}

// AddEncodedMap adds a section for the map of chunk at the current offset, and advances the offset past chunk.
func (m *IndexMap) AddEncodedMap(sm *SourceMap, chunk []byte) {
	m.Sections = append(m.Sections, IndexMapSection{m.offset, sm})
	m.AddOffset(chunk)
}

// AddOffset advances the offset past text that has no source map.
func (m *IndexMap) AddOffset(text []byte) {
	m.offset = m.offset.Add(NewIndexMapOffset(text))
}

// Offset returns the current offset, which is the extent of all output added so far.
func (m *IndexMap) Offset() IndexMapOffset {
	return m.offset
}

// JSON returns the JSON encoding of the index map.
func (m *IndexMap) JSON() ([]byte, error) {
	return json.Marshal(m)
}
