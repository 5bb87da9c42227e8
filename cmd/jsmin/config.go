package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tdewolff/jsmin/js"
	"gopkg.in/yaml.v3"
)

// Config holds options read from a YAML configuration file. The keys equal the long command line option names.
type Config struct {
	Recursive      bool     `yaml:"recursive"`
	All            bool     `yaml:"all"`
	Bundle         bool     `yaml:"bundle"`
	Sync           bool     `yaml:"sync"`
	Match          []string `yaml:"match"`
	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`
	Preserve       []string `yaml:"preserve"`
	SourceMap      string   `yaml:"source-map"`
	SourcesContent bool     `yaml:"sources-content"`
	IndexMap       bool     `yaml:"index-map"`
	Identity       bool     `yaml:"identity"`
	MaxLineLength  int      `yaml:"max-line-length"`
}

func loadConfig(filename string) (Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	config := Config{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// apply sets the options that were not given on the command line.
func (c Config) apply(isSet func(string) bool, jsMinifier *js.Minifier, identity *bool) {
	setBool := func(name string, dst *bool, v bool) {
		if v && !isSet(name) {
			*dst = true
		}
	}
	setBool("recursive", &recursive, c.Recursive)
	setBool("all", &hidden, c.All)
	setBool("bundle", &concat, c.Bundle)
	setBool("sync", &syncAll, c.Sync)
	setBool("sources-content", &sourcesContent, c.SourcesContent)
	setBool("index-map", &indexMap, c.IndexMap)
	setBool("identity", identity, c.Identity)

	if 0 < len(c.Match) && !isSet("match") {
		matches = append(matches, c.Match...)
	}
	if !isSet("include") && !isSet("exclude") {
		for _, pattern := range c.Include {
			filters = append(filters, "+"+pattern)
		}
		for _, pattern := range c.Exclude {
			filters = append(filters, "-"+pattern)
		}
	}
	if 0 < len(c.Preserve) && !isSet("preserve") {
		preserve = c.Preserve
	}
	if c.SourceMap != "" && !isSet("source-map") {
		sourceMap = c.SourceMap
	}
	if c.MaxLineLength != 0 && !isSet("max-line-length") {
		jsMinifier.MaxLineLength = c.MaxLineLength
	}
}
