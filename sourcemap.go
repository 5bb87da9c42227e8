package jsmin

import (
	"encoding/json"
	"errors"
	"fmt"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
)

var base64Values [256]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		base64Values[base64Alphabet[i]] = int8(i)
	}
}

// ErrBadMappings is returned when a mappings string cannot be decoded.
var ErrBadMappings = errors.New("bad mappings")

// EncodeVLQ appends the base64 VLQ encoding of v to dst.
func EncodeVLQ(dst []byte, v int) []byte {
	var vlq uint64
	if v < 0 {
		vlq = uint64(-v)<<1 | 1
	} else {
		vlq = uint64(v) << 1
	}
	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq != 0 {
			digit |= vlqContinuationBit
		}
		dst = append(dst, base64Alphabet[digit])
		if vlq == 0 {
			return dst
		}
	}
}

// DecodeVLQ decodes a base64 VLQ value from the start of b and returns it together with the number of bytes read.
func DecodeVLQ(b []byte) (int, int, error) {
	var vlq uint64
	shift := uint(0)
	for i, c := range b {
		digit := base64Values[c]
		if digit < 0 {
			return 0, 0, fmt.Errorf("%w: invalid character %q", ErrBadMappings, c)
		} else if 60 < shift {
			return 0, 0, fmt.Errorf("%w: value overflows", ErrBadMappings)
		}
		vlq |= uint64(digit&vlqBaseMask) << shift
		if digit&vlqContinuationBit == 0 {
			v := int(vlq >> 1)
			if vlq&1 == 1 {
				v = -v
			}
			return v, i + 1, nil
		}
		shift += vlqBaseShift
	}
	return 0, 0, fmt.Errorf("%w: unexpected end of value", ErrBadMappings)
}

////////////////////////////////////////////////////////////////

// SourceMap is a version 3 source map, see https://sourcemaps.info/spec.html.
type SourceMap struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// NewSourceMap returns a source map for the given mappings.
func NewSourceMap(file string, sources []string, mappings []byte) *SourceMap {
	if sources == nil {
		sources = []string{}
	}
	return &SourceMap{
		Version:  3,
		File:     file,
		Sources:  sources,
		Names:    []string{},
		Mappings: string(mappings),
	}
}

// JSON returns the JSON encoding of the source map.
func (sm *SourceMap) JSON() ([]byte, error) {
	return json.Marshal(sm)
}

////////////////////////////////////////////////////////////////

// MappingsGenerator builds the mappings field of a source map token by token. The output may consist of several consecutive source files.
type MappingsGenerator struct {
	mappings []byte

	src       []byte
	srcIndex  int
	srcOffset int
	srcLine   int
	srcCol    int

	dstLine int
	dstCol  int

	prevSrcIndex, prevSrcLine, prevSrcCol int
	prevDstLine, prevDstCol               int
	lineHasSegment                        bool
}

// NewMappingsGenerator returns a new MappingsGenerator.
func NewMappingsGenerator() *MappingsGenerator {
	return &MappingsGenerator{
		srcIndex: -1,
	}
}

// NextSourceFile starts a new source file, segments that follow refer to it.
func (g *MappingsGenerator) NextSourceFile(src []byte) {
	g.src = src
	g.srcIndex++
	g.srcOffset = 0
	g.srcLine = 0
	g.srcCol = 0
}

// SourceIndex returns the index of the current source file, or -1 if there is none.
func (g *MappingsGenerator) SourceIndex() int {
	return g.srcIndex
}

// ConsumeSource advances the position in the current source file by n bytes.
func (g *MappingsGenerator) ConsumeSource(n int) {
	end := g.srcOffset + n
	if len(g.src) < end {
		end = len(g.src)
	}
	b := g.src[g.srcOffset:end]
	if 0 < len(b) && b[0] == '\n' && 0 < g.srcOffset && g.src[g.srcOffset-1] == '\r' {
		// second half of a \r\n that was already counted
		b = b[1:]
	}
	lines, col := UTF16LastLine(b)
	if 0 < lines {
		g.srcLine += lines
		g.srcCol = col
	} else {
		g.srcCol += col
	}
	g.srcOffset = end
}

// OutputSpace advances the output position by b without adding a segment.
func (g *MappingsGenerator) OutputSpace(b []byte) {
	g.advanceOutput(b)
}

// OutputToken adds a segment mapping the current output position to the current source position, and advances the output position by b.
func (g *MappingsGenerator) OutputToken(b []byte) {
	if g.prevDstLine < g.dstLine {
		for i := g.prevDstLine; i < g.dstLine; i++ {
			g.mappings = append(g.mappings, ';')
		}
		g.prevDstLine = g.dstLine
		g.prevDstCol = 0
	} else if g.lineHasSegment {
		g.mappings = append(g.mappings, ',')
	}
	g.mappings = EncodeVLQ(g.mappings, g.dstCol-g.prevDstCol)
	g.mappings = EncodeVLQ(g.mappings, g.srcIndex-g.prevSrcIndex)
	g.mappings = EncodeVLQ(g.mappings, g.srcLine-g.prevSrcLine)
	g.mappings = EncodeVLQ(g.mappings, g.srcCol-g.prevSrcCol)
	g.prevDstCol = g.dstCol
	g.prevSrcIndex = g.srcIndex
	g.prevSrcLine = g.srcLine
	g.prevSrcCol = g.srcCol
	g.lineHasSegment = true

	g.advanceOutput(b)
}

func (g *MappingsGenerator) advanceOutput(b []byte) {
	lines, col := UTF16LastLine(b)
	if 0 < lines {
		g.dstLine += lines
		g.dstCol = col
		g.lineHasSegment = false
	} else {
		g.dstCol += col
	}
}

// Mappings returns the encoded mappings.
func (g *MappingsGenerator) Mappings() []byte {
	return g.mappings
}

////////////////////////////////////////////////////////////////

// Segment is a decoded mapping segment with absolute 0-based positions. Source and Name are -1 when absent.
type Segment struct {
	GenLine, GenColumn       int
	Source                   int
	SourceLine, SourceColumn int
	Name                     int
}

// DecodeMappings decodes the mappings field of a source map.
func DecodeMappings(mappings []byte) ([]Segment, error) {
	segments := []Segment{}
	var genLine, genCol, src, srcLine, srcCol, name int
	var fields [5]int
	for i := 0; i < len(mappings); {
		if mappings[i] == ';' {
			genLine++
			genCol = 0
			i++
			continue
		} else if mappings[i] == ',' {
			i++
			continue
		}

		n := 0
		for i < len(mappings) && mappings[i] != ',' && mappings[i] != ';' {
			if n == len(fields) {
				return nil, fmt.Errorf("%w: too many fields in segment at %d", ErrBadMappings, i)
			}
			v, m, err := DecodeVLQ(mappings[i:])
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			i += m
		}
		if n != 1 && n != 4 && n != 5 {
			return nil, fmt.Errorf("%w: segment with %d fields at %d", ErrBadMappings, n, i)
		}

		genCol += fields[0]
		segment := Segment{genLine, genCol, -1, 0, 0, -1}
		if 4 <= n {
			src += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			segment.Source = src
			segment.SourceLine = srcLine
			segment.SourceColumn = srcCol
		}
		if n == 5 {
			name += fields[4]
			segment.Name = name
		}
		segments = append(segments, segment)
	}
	return segments, nil
}
