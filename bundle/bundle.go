// Package bundle accumulates minified JavaScript chunks into one output, optionally with a source map.
package bundle

import (
	"io"

	"github.com/tdewolff/jsmin"
	"github.com/tdewolff/jsmin/js"
	"github.com/tdewolff/parse/v2/buffer"
)

// Processor minifies a single chunk. It is implemented by *js.Minifier and Identity.
type Processor interface {
	MinifySource(io.Writer, []byte, js.Mapper, js.ErrorFunc) error
}

// Identity is a Processor that copies its input unchanged.
type Identity struct{}

// MinifySource writes src to w. When mapping, every line start is mapped to itself.
func (Identity) MinifySource(w io.Writer, src []byte, m js.Mapper, _ js.ErrorFunc) error {
	if _, err := w.Write(src); err != nil {
		return err
	}
	if m != nil {
		for start := 0; start < len(src); {
			end := lineEnd(src, start)
			m.OutputToken(src[start:end])
			m.ConsumeSource(end - start)
			start = end
		}
	}
	return nil
}

// lineEnd returns the index just past the line terminator of the line starting at i, or len(b).
func lineEnd(b []byte, i int) int {
	for ; i < len(b); i++ {
		switch b[i] {
		case '\n':
			return i + 1
		case '\r':
			if i+1 < len(b) && b[i+1] == '\n' {
				return i + 2
			}
			return i + 1
		case 0xE2:
			if i+2 < len(b) && b[i+1] == 0x80 && (b[i+2] == 0xA8 || b[i+2] == 0xA9) {
				return i + 3
			}
		}
	}
	return len(b)
}

////////////////////////////////////////////////////////////////

// ErrorFunc is called for every anomaly in a source file, with the name that was passed to AddSourceFile.
type ErrorFunc func(name string, err *js.Error)

// State accumulates the minified output of several source files.
type State struct {
	ErrorFunc ErrorFunc

	p   Processor
	w   *buffer.Writer
	err error
}

// New returns a State that minifies source files with p.
func New(p Processor) *State {
	return &State{
		p: p,
		w: buffer.NewWriter(nil),
	}
}

// NewIdentity returns a State that copies source files unchanged.
func NewIdentity() *State {
	return New(Identity{})
}

// AddSourceFile minifies src and appends it to the output. The name is reported to ErrorFunc, bundle is only used by SourceMapState.
func (s *State) AddSourceFile(name string, src []byte, bundle bool) *State {
	s.process(name, src, nil)
	return s
}

// AddOutput appends b to the output without processing it.
func (s *State) AddOutput(b []byte) *State {
	s.write(b)
	return s
}

// EnsureNewline appends a newline unless the output is empty or already ends in one.
func (s *State) EnsureNewline() *State {
	if b := s.w.Bytes(); 0 < len(b) && b[len(b)-1] != '\n' {
		s.write([]byte("\n"))
	}
	return s
}

// MinifiedOutput returns the output so far.
func (s *State) MinifiedOutput() []byte {
	return s.w.Bytes()
}

// Err returns the first error that occurred, after which all additions are ignored.
func (s *State) Err() error {
	return s.err
}

func (s *State) process(name string, src []byte, m js.Mapper) {
	if s.err != nil {
		return
	}
	var errorFunc js.ErrorFunc
	if s.ErrorFunc != nil {
		errorFunc = func(err *js.Error) {
			s.ErrorFunc(name, err)
		}
	}
	s.err = s.p.MinifySource(s.w, src, m, errorFunc)
}

func (s *State) write(b []byte) bool {
	if s.err != nil {
		return false
	}
	_, s.err = s.w.Write(b)
	return s.err == nil
}

////////////////////////////////////////////////////////////////

// SourceMapState accumulates the minified output of several source files together with a source map.
// The flat map references every source file, the index map has one section per source file.
type SourceMapState struct {
	State

	file     string
	gen      *jsmin.MappingsGenerator
	sources  []string
	contents []*string
	index    *jsmin.IndexMap
}

// NewSourceMap returns a SourceMapState that minifies source files with p. The file is the name of the generated output.
func NewSourceMap(file string, p Processor) *SourceMapState {
	return &SourceMapState{
		State: *New(p),
		file:  file,
		gen:   jsmin.NewMappingsGenerator(),
		index: jsmin.NewIndexMap(file),
	}
}

// NewIdentitySourceMap returns a SourceMapState that copies source files unchanged and maps every line to itself.
func NewIdentitySourceMap(file string) *SourceMapState {
	return NewSourceMap(file, Identity{})
}

// AddSourceFile minifies src and appends it to the output, mapping it to name. If bundle is set, src is embedded in the source map.
func (s *SourceMapState) AddSourceFile(name string, src []byte, bundle bool) *SourceMapState {
	if s.err != nil {
		return s
	}

	var content *string
	if bundle {
		str := string(src)
		content = &str
	}
	s.sources = append(s.sources, name)
	s.contents = append(s.contents, content)

	chunkGen := jsmin.NewMappingsGenerator()
	chunkGen.NextSourceFile(src)
	s.gen.NextSourceFile(src)

	start := s.w.Len()
	s.process(name, src, mappers{s.gen, chunkGen})
	if s.err != nil {
		return s
	}

	sm := jsmin.NewSourceMap("", []string{name}, chunkGen.Mappings())
	if content != nil {
		sm.SourcesContent = []*string{content}
	}
	s.index.AddEncodedMap(sm, s.w.Bytes()[start:])
	return s
}

// AddOutput appends b to the output without processing or mapping it.
func (s *SourceMapState) AddOutput(b []byte) *SourceMapState {
	if s.write(b) {
		s.gen.OutputSpace(b)
		s.index.AddOffset(b)
	}
	return s
}

// EnsureNewline appends a newline unless the output is empty or already ends in one.
func (s *SourceMapState) EnsureNewline() *SourceMapState {
	if b := s.w.Bytes(); 0 < len(b) && b[len(b)-1] != '\n' {
		s.AddOutput([]byte("\n"))
	}
	return s
}

// SourceMapData returns the flat source map of the output so far.
func (s *SourceMapState) SourceMapData() *jsmin.SourceMap {
	sm := jsmin.NewSourceMap(s.file, append([]string{}, s.sources...), s.gen.Mappings())
	for _, content := range s.contents {
		if content != nil {
			sm.SourcesContent = append([]*string{}, s.contents...)
			break
		}
	}
	return sm
}

// RawSourceMap returns the JSON encoding of the flat source map.
func (s *SourceMapState) RawSourceMap() ([]byte, error) {
	return s.SourceMapData().JSON()
}

// SourceMap returns the JSON encoding of the flat source map, prefixed by a line that prevents it from being executed as a script.
func (s *SourceMapState) SourceMap() ([]byte, error) {
	b, err := s.RawSourceMap()
	if err != nil {
		return nil, err
	}
	return append([]byte(")]}\n"), b...), nil
}

// IndexMapData returns the index map of the output so far.
func (s *SourceMapState) IndexMapData() *jsmin.IndexMap {
	return s.index
}

// RawIndexMap returns the JSON encoding of the index map.
func (s *SourceMapState) RawIndexMap() ([]byte, error) {
	return s.index.JSON()
}

// mappers passes progress to several mappers.
type mappers []js.Mapper

func (ms mappers) ConsumeSource(n int) {
	for _, m := range ms {
		m.ConsumeSource(n)
	}
}

func (ms mappers) OutputSpace(b []byte) {
	for _, m := range ms {
		m.OutputSpace(b)
	}
}

func (ms mappers) OutputToken(b []byte) {
	for _, m := range ms {
		m.OutputToken(b)
	}
}
