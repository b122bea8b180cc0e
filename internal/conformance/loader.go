package conformance

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultDir holds the suites shipped with the package.
const DefaultDir = "testdata"

// LoadedCase is a case together with its suite and source file.
type LoadedCase struct {
	File  string
	Suite *Suite
	Case  Case
}

// LoadDir walks dir and loads every .yaml suite, in file name order.
func LoadDir(dir string) ([]LoadedCase, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && (filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var loaded []LoadedCase
	for _, path := range files {
		suite, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		for _, c := range suite.Cases {
			loaded = append(loaded, LoadedCase{File: rel, Suite: suite, Case: c})
		}
	}
	return loaded, nil
}

// LoadFile parses a single suite file.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suite, nil
}

// Parse decodes a suite. Unknown keys are rejected so that a misspelled
// expectation cannot silently pass.
func Parse(data []byte) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var suite Suite
	if err := dec.Decode(&suite); err != nil {
		return nil, err
	}
	for i, c := range suite.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("test %d has no name", i)
		}
		if len(c.Sources()) == 0 {
			return nil, fmt.Errorf("test %q has no code or inputs", c.Name)
		}
	}
	return &suite, nil
}
