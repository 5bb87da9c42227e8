package main

import (
	"bytes"
	"path/filepath"

	"github.com/tdewolff/jsmin/bundle"
	"github.com/tdewolff/jsmin/js"
)

var separator = []byte(";\n")

type result struct {
	out    []byte
	srcMap []byte
}

// process minifies and concatenates the sources of a task, and builds its source map when requested.
func process(t Task, srcs [][]byte) (result, error) {
	errorFunc := func(name string, err *js.Error) {
		Warning.Printf("%s: %v\n", name, err)
	}

	if sourceMap == "" {
		s := bundle.New(processor)
		s.ErrorFunc = errorFunc
		for i, src := range srcs {
			if 0 < i {
				s.AddOutput(separator)
			}
			s.AddSourceFile(sourceName(t.srcs[i], t.dst, "."), src, false)
		}
		return result{out: s.MinifiedOutput()}, s.Err()
	}

	mapDir := filepath.Dir(sourceMap)
	file := ""
	if t.dst != "" {
		file = relPath(mapDir, t.dst)
	}

	s := bundle.NewSourceMap(file, processor)
	s.ErrorFunc = errorFunc
	for i, src := range srcs {
		if 0 < i {
			s.AddOutput(separator)
		}
		s.AddSourceFile(sourceName(t.srcs[i], t.dst, mapDir), src, sourcesContent)
	}
	if err := s.Err(); err != nil {
		return result{}, err
	}

	var srcMap []byte
	var err error
	if indexMap {
		srcMap, err = s.RawIndexMap()
	} else {
		srcMap, err = s.RawSourceMap()
	}
	if err != nil {
		return result{}, err
	}

	dstDir := "."
	if t.dst != "" {
		dstDir = filepath.Dir(t.dst)
	}
	s.EnsureNewline().AddOutput([]byte("//# sourceMappingURL=" + relPath(dstDir, sourceMap) + "\n"))
	return result{s.MinifiedOutput(), srcMap}, nil
}

// sourceName returns the name of a source file relative to dir, using the destination name for an original that was renamed before overwriting.
func sourceName(src, dst, dir string) string {
	if src == "" {
		return "stdin"
	} else if dst != "" && src == dst+".bak" {
		src = dst
	}
	return relPath(dir, src)
}

func relPath(base, target string) string {
	if rel, err := filepath.Rel(base, target); err == nil {
		target = rel
	}
	return filepath.ToSlash(target)
}

func concatSources(srcs [][]byte) []byte {
	return bytes.Join(srcs, separator)
}
