package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tdewolff/jsmin"
)

type encodedMap struct {
	Sources  []string `json:"sources"`
	Mappings string   `json:"mappings"`
	Sections []struct {
		Offset jsmin.IndexMapOffset `json:"offset"`
		Map    *encodedMap          `json:"map"`
	} `json:"sections"`
}

// decodeMap returns one line per segment of a source map or index map, as generated position, source and source position.
// Lines and columns are 0-based.
func decodeMap(b []byte) ([]string, error) {
	b = bytes.TrimPrefix(b, []byte(")]}\n"))
	m := &encodedMap{}
	if err := json.Unmarshal(b, m); err != nil {
		return nil, err
	}

	lines := []string{}
	if m.Sections == nil {
		return decodeSegments(lines, m, jsmin.IndexMapOffset{})
	}
	for i, section := range m.Sections {
		if section.Map == nil {
			return nil, fmt.Errorf("section %d has no map", i)
		}
		var err error
		if lines, err = decodeSegments(lines, section.Map, section.Offset); err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
	}
	return lines, nil
}

func decodeSegments(lines []string, m *encodedMap, offset jsmin.IndexMapOffset) ([]string, error) {
	segments, err := jsmin.DecodeMappings([]byte(m.Mappings))
	if err != nil {
		return nil, err
	}
	for _, segment := range segments {
		genLine, genCol := offset.Line+segment.GenLine, segment.GenColumn
		if segment.GenLine == 0 {
			genCol += offset.Column
		}
		if segment.Source < 0 {
			lines = append(lines, fmt.Sprintf("%d:%d", genLine, genCol))
			continue
		}

		source := fmt.Sprintf("#%d", segment.Source)
		if segment.Source < len(m.Sources) {
			source = m.Sources[segment.Source]
		}
		lines = append(lines, fmt.Sprintf("%d:%d -> %s:%d:%d", genLine, genCol, source, segment.SourceLine, segment.SourceColumn))
	}
	return lines, nil
}
