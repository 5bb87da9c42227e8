package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/tdewolff/jsmin/bundle"
	"github.com/tdewolff/jsmin/js"
	"github.com/tdewolff/test"
)

func TestMain(m *testing.M) {
	Error = log.New(io.Discard, "", 0)
	Warning = log.New(io.Discard, "", 0)
	Info = log.New(io.Discard, "", 0)
	os.Exit(m.Run())
}

// setup resets the options that tests change.
func setup(t *testing.T) {
	reset := func() {
		recursive, hidden, concat, syncAll, quiet = false, false, false, false, true
		matches, matchesRegexp, filters, filtersRegexp = nil, nil, nil, nil
		preserveMode, preserveOwnership, preserveTimestamps, preserveLinks = false, false, false, false
		processor = js.DefaultMinifier
		sourceMap, sourcesContent, indexMap = "", false, false
	}
	reset()
	t.Cleanup(reset)
}

func TestCreateTasks(t *testing.T) {
	setup(t)
	fsys := fstest.MapFS{
		"a.js":         {},
		"dir/b.js":     {},
		"dir/c.mjs":    {},
		"dir/d.css":    {},
		"dir/.e.js":    {},
		".hidden/f.js": {},
	}

	tests := []struct {
		input, output string
		tasks         map[string]string
	}{
		// root file
		{"a.js", "", map[string]string{"a.js": ""}},
		{"a.js", ".", map[string]string{"a.js": "a.js"}},
		{"a.js", "./", map[string]string{"a.js": "a.js"}},
		{"a.js", "out", map[string]string{"a.js": "out"}},
		{"a.js", "out/", map[string]string{"a.js": "out/a.js"}},

		// nested file
		{"dir/b.js", "", map[string]string{"dir/b.js": ""}},
		{"dir/b.js", ".", map[string]string{"dir/b.js": "b.js"}},
		{"dir/b.js", "./", map[string]string{"dir/b.js": "b.js"}},
		{"dir/b.js", "out", map[string]string{"dir/b.js": "out"}},
		{"dir/b.js", "out/", map[string]string{"dir/b.js": "out/b.js"}},

		// explicit input without JS extension
		{"dir/d.css", "out/", map[string]string{"dir/d.css": "out/d.css"}},

		// directory
		{"dir", "", map[string]string{"dir/b.js": "", "dir/c.mjs": ""}},
		{"dir", ".", map[string]string{"dir/b.js": "dir/b.js", "dir/c.mjs": "dir/c.mjs"}},
		{"dir", "./", map[string]string{"dir/b.js": "dir/b.js", "dir/c.mjs": "dir/c.mjs"}},
		{"dir", "out/", map[string]string{"dir/b.js": "out/dir/b.js", "dir/c.mjs": "out/dir/c.mjs"}},
		{"dir/", "out/", map[string]string{"dir/b.js": "out/b.js", "dir/c.mjs": "out/c.mjs"}},
	}

	recursive = true
	for _, tt := range tests {
		t.Run(tt.input+" => "+tt.output, func(t *testing.T) {
			tasks, _, err := createTasks(fsys, []string{tt.input}, tt.output)
			test.Error(t, err)
			if len(tasks) != len(tt.tasks) {
				test.Fail(t, fmt.Sprintf("missing %v", tt.tasks))
			}
			for _, task := range tasks {
				if dst, ok := tt.tasks[task.srcs[0]]; !ok || dst != task.dst {
					test.Fail(t, fmt.Sprintf("unexpected %s => %s", task.srcs[0], task.dst))
				}
			}
		})
	}
}

func TestCreateTasksFilters(t *testing.T) {
	setup(t)
	fsys := fstest.MapFS{
		"dir/a.js":     {},
		"dir/a.min.js": {},
		"dir/sub/b.js": {},
	}

	recursive = true
	filters = []string{"-**.min.js"}
	filtersRegexp = []*regexp.Regexp{}
	for _, filter := range filters {
		re, err := compilePattern(filter[1:])
		test.Error(t, err)
		filtersRegexp = append(filtersRegexp, re)
	}

	tasks, roots, err := createTasks(fsys, []string{"dir"}, "out/")
	test.Error(t, err)
	test.T(t, roots, []string{"."})
	srcs := []string{}
	for _, task := range tasks {
		srcs = append(srcs, task.srcs[0])
	}
	test.T(t, srcs, []string{"dir/a.js", "dir/sub/b.js"})
}

func TestCompilePattern(t *testing.T) {
	var patternTests = []struct {
		pattern string
		name    string
		match   bool
	}{
		{"*.js", "a.js", true},
		{"*.js", "dir/a.js", false},
		{"**.js", "dir/a.js", true},
		{"a?.js", "ab.js", true},
		{"~^a+\\.js$", "aaa.js", true},
		{"~^a+\\.js$", "b.js", false},
		{"\\~a", "~a", true},
	}

	for _, tt := range patternTests {
		t.Run(tt.pattern+" "+tt.name, func(t *testing.T) {
			re, err := compilePattern(tt.pattern)
			test.Error(t, err)
			test.T(t, re.MatchString(filepath.FromSlash(tt.name)), tt.match)
		})
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		test.Error(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func readFile(t *testing.T, filename string) string {
	b, err := os.ReadFile(filename)
	test.Error(t, err)
	return string(b)
}

func TestMinifyTask(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.js": "var a = 1 ;\n\nfunction f ( b ) { return b }",
		"b.js": "x = 1",
	})
	a, b, out := filepath.Join(dir, "a.js"), filepath.Join(dir, "b.js"), filepath.Join(dir, "out.js")

	test.That(t, minify(Task{dir, []string{a}, out, false}))
	test.String(t, readFile(t, out), "var a=1;function f(b){return b}")

	test.That(t, minify(Task{dir, []string{a, b}, out, false}))
	test.String(t, readFile(t, out), "var a=1;function f(b){return b};\nx=1")

	processor = bundle.Identity{}
	test.That(t, minify(Task{dir, []string{a, b}, out, false}))
	test.String(t, readFile(t, out), "var a = 1 ;\n\nfunction f ( b ) { return b };\nx = 1")
}

func TestMinifyOverwrite(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.js": "a = 1"})
	a := filepath.Join(dir, "a.js")

	test.That(t, minify(Task{dir, []string{a}, a, false}))
	test.String(t, readFile(t, a), "a=1")
	_, err := os.Stat(a + ".bak")
	test.That(t, os.IsNotExist(err), "backup removed")
}

func TestMinifySync(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "a  b"})
	a, out := filepath.Join(dir, "a.txt"), filepath.Join(dir, "out", "a.txt")

	test.That(t, minify(Task{dir, []string{a}, out, true}))
	test.String(t, readFile(t, out), "a  b")
}

func TestMinifySourceMap(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.js": "var a = 1 ;\n\nfunction f ( b ) { return b }",
		"b.js": "x = 1",
	})
	a, b, out := filepath.Join(dir, "a.js"), filepath.Join(dir, "b.js"), filepath.Join(dir, "out.js")

	for _, index := range []bool{false, true} {
		t.Run(fmt.Sprint("index=", index), func(t *testing.T) {
			sourceMap = filepath.Join(dir, "out.js.map")
			sourcesContent = true
			indexMap = index

			test.That(t, minify(Task{dir, []string{a, b}, out, false}))
			test.String(t, readFile(t, out), "var a=1;function f(b){return b};\nx=1\n//# sourceMappingURL=out.js.map\n")

			srcMap := readFile(t, sourceMap)
			test.That(t, strings.Contains(srcMap, `"sourcesContent":[`), "sources content")
			if index {
				test.That(t, strings.HasPrefix(srcMap, `{"version":3,"file":"out.js","sections":[`), srcMap)
			} else {
				test.That(t, strings.HasPrefix(srcMap, `{"version":3,"file":"out.js","sources":["a.js","b.js"]`), srcMap)
			}

			lines, err := decodeMap([]byte(srcMap))
			test.Error(t, err)
			test.String(t, lines[0], "0:0 -> a.js:0:0")
			test.String(t, lines[1], "0:4 -> a.js:0:4")
			test.String(t, lines[len(lines)-3], "1:0 -> b.js:0:0")
			test.String(t, lines[len(lines)-1], "1:2 -> b.js:0:4")
		})
	}
}

func TestDecodeMap(t *testing.T) {
	var decodeTests = []struct {
		data  string
		lines []string
	}{
		{`{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA,CAAE;ACAA"}`, []string{"0:0 -> a.js:0:0", "0:1 -> a.js:0:2", "1:0 -> #1:0:2"}},
		{")]}\n" + `{"version":3,"sources":["a.js"],"names":[],"mappings":";;E"}`, []string{"2:2"}},
		{`{"version":3,"sections":[{"offset":{"line":0,"column":3},"map":{"sources":["a.js"],"mappings":"AAAA;AACA"}},{"offset":{"line":2,"column":0},"map":{"sources":["b.js"],"mappings":"CAAC"}}]}`, []string{"0:3 -> a.js:0:0", "1:0 -> a.js:1:0", "2:1 -> b.js:0:1"}},
	}

	for _, tt := range decodeTests {
		t.Run(tt.data, func(t *testing.T) {
			lines, err := decodeMap([]byte(tt.data))
			test.Error(t, err)
			test.T(t, lines, tt.lines)
		})
	}

	_, err := decodeMap([]byte(`{"mappings":"A!"}`))
	test.That(t, err != nil, "bad mappings")
	_, err = decodeMap([]byte(`{"sections":[{"offset":{"line":0,"column":0}}]}`))
	test.That(t, err != nil, "missing map")
}

func TestConfig(t *testing.T) {
	setup(t)
	config, err := parseConfig([]byte("bundle: true\nrecursive: true\nmax-line-length: 80\nexclude: [\"*.min.js\"]\nsource-map: out.map\n"))
	test.Error(t, err)

	jsMinifier := js.Minifier{MaxLineLength: 10}
	identity := false
	config.apply(func(name string) bool {
		return name == "bundle"
	}, &jsMinifier, &identity)
	test.That(t, !concat, "command line takes precedence")
	test.That(t, recursive)
	test.T(t, jsMinifier.MaxLineLength, 80)
	test.T(t, filters, []string{"-*.min.js"})
	test.String(t, sourceMap, "out.map")
	test.That(t, !identity)

	_, err = parseConfig([]byte("unknown: 1\n"))
	test.That(t, err != nil, "unknown field")

	config, err = parseConfig(nil)
	test.Error(t, err)
	test.T(t, config.MaxLineLength, 0)
}

func TestWatcherIgnore(t *testing.T) {
	w := &Watcher{
		dirs:   map[string]bool{},
		paths:  map[string]bool{"dir": true, "a.js": true},
		ignore: map[string]bool{},
	}
	w.IgnoreNext("out/../b.js")
	w.IgnoreNext("")
	test.That(t, w.ignored("b.js"))
	test.That(t, !w.ignored("b.js"), "only once")
	test.That(t, w.watched("a.js"))
	test.That(t, !w.watched("b.js"))
}
