package specfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// MaxFileSize bounds the size of a tools file.
const MaxFileSize = 10 << 20

var yamlLine = regexp.MustCompile(`line (\d+)`)

// Load reads and parses the tools file at path.
func Load(path string) ([]Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		msg := "failed to access file"
		switch {
		case os.IsNotExist(err):
			msg = "file not found"
		case os.IsPermission(err):
			msg = "permission denied"
		}
		return nil, &LoadError{FilePath: path, Message: msg, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}
	return parse(path, data)
}

// Parse parses a tools document.
func Parse(data []byte) ([]Definition, error) {
	return parse("", data)
}

func parse(path string, data []byte) ([]Definition, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{FilePath: path, Line: errorLine(err), Message: "YAML parsing failed", Cause: err}
	}

	seen := make(map[string]bool, len(file.Tools))
	for i, def := range file.Tools {
		if def.Name == "" {
			return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("tools[%d]: name is required", i)}
		}
		if seen[def.Name] {
			return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("tool %q is declared twice", def.Name)}
		}
		seen[def.Name] = true

		for name, field := range def.Fields {
			if err := field.check(); err != nil {
				return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("tool %q field %q: %s", def.Name, name, err)}
			}
		}
	}
	return file.Tools, nil
}

func (f FieldDef) check() error {
	if f.Allowed != nil && f.Suggested != nil {
		return errors.New("allowed and suggested are mutually exclusive")
	}
	if f.Lookup != nil && (f.Allowed != nil || f.Suggested != nil) {
		return errors.New("lookup cannot be combined with allowed or suggested")
	}
	if f.Lookup != nil && f.Lookup.Query == "" {
		return errors.New("lookup.query is required")
	}
	for i, c := range f.Checks {
		if c.Expr == "" {
			return fmt.Errorf("checks[%d].expr is required", i)
		}
	}
	return nil
}

func errorLine(err error) int {
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
