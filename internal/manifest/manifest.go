// Package manifest loads the OpenCL settings file that names the kernel
// source files and the compiler options used to build them.
//
// The settings file is a JSON document:
//
//	{
//	  "Sources": ["common.cl", "hz.cl"],
//	  "CompileOptions": "-cl-fast-relaxed-math"
//	}
//
// Source names are resolved against the directory containing the settings
// file. Unknown fields are ignored.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// DefaultFileName is the conventional name of the settings file.
const DefaultFileName = "OpenCLSettings.json"

// ErrInvalid marks every failure to load the settings file or the sources
// it references. Use errors.Is(err, ErrInvalid) to check for it.
var ErrInvalid = errors.New("invalid OpenCL settings")

// Manifest is a parsed settings file.
type Manifest struct {
	// Path is the settings file the manifest was loaded from.
	Path string
	// Sources holds the resolved source paths in declaration order.
	Sources []string
	// CompileOptions is passed verbatim to the OpenCL compiler.
	CompileOptions string
}

// Bundle is the in-memory kernel source set submitted as one program.
type Bundle struct {
	Files          []string
	Sources        []string
	CompileOptions string
}

type document struct {
	Sources        *[]string `json:"Sources"`
	CompileOptions *string   `json:"CompileOptions"`
}

// Load parses the settings file at path and resolves its source paths.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrInvalid, path, err)
	}
	return Parse(path, data)
}

// Parse decodes settings data as if it had been read from path.
func Parse(path string, data []byte) (*Manifest, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalid, path, err)
	}
	if doc.Sources == nil {
		return nil, fmt.Errorf("%w: %s: missing \"Sources\"", ErrInvalid, path)
	}
	if len(*doc.Sources) == 0 {
		return nil, fmt.Errorf("%w: %s: \"Sources\" is empty", ErrInvalid, path)
	}
	if doc.CompileOptions == nil {
		return nil, fmt.Errorf("%w: %s: missing \"CompileOptions\"", ErrInvalid, path)
	}

	dir := filepath.Dir(path)
	sources := make([]string, len(*doc.Sources))
	for i, name := range *doc.Sources {
		sources[i] = filepath.Join(dir, name)
	}

	return &Manifest{
		Path:           path,
		Sources:        sources,
		CompileOptions: *doc.CompileOptions,
	}, nil
}

// Bundle reads every source file into memory, preserving manifest order.
func (m *Manifest) Bundle() (*Bundle, error) {
	contents := make([]string, len(m.Sources))

	var eg errgroup.Group
	for i, path := range m.Sources {
		i, path := i, path
		eg.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: failed to read kernel source: %w", ErrInvalid, err)
			}
			contents[i] = string(data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &Bundle{
		Files:          append([]string(nil), m.Sources...),
		Sources:        contents,
		CompileOptions: m.CompileOptions,
	}, nil
}

// LoadBundle loads the settings file at path and reads all of its sources.
func LoadBundle(path string) (*Bundle, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	return m.Bundle()
}
