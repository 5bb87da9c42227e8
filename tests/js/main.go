//go:build gofuzz
// +build gofuzz

package fuzz

import (
	"bytes"

	"github.com/tdewolff/jsmin"
	"github.com/tdewolff/jsmin/js"
)

// Fuzz is a fuzz test that minifies data twice and decodes the mappings of the first pass.
func Fuzz(data []byte) int {
	g := jsmin.NewMappingsGenerator()
	g.NextSourceFile(data)

	w := &bytes.Buffer{}
	if err := js.DefaultMinifier.MinifySource(w, data, g, nil); err != nil {
		panic(err)
	}
	if _, err := jsmin.DecodeMappings(g.Mappings()); err != nil {
		panic(err)
	}

	w2 := &bytes.Buffer{}
	if err := js.DefaultMinifier.MinifySource(w2, w.Bytes(), nil, nil); err != nil {
		panic(err)
	}
	return 1
}
