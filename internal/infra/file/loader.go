// Package file reads form definitions from YAML or JSON documents on disk.
// It backs the validate command and seeding the store at startup.
package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"formflow/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported form file format")

// LoadForm decodes a single form document. The extension selects the codec;
// unknown fields are rejected so typos do not silently drop rules.
func LoadForm(path string) (domain.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Form{}, err
	}
	var form domain.Form
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&form); err != nil && !errors.Is(err, io.EOF) {
			return domain.Form{}, fmt.Errorf("%s: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&form); err != nil {
			return domain.Form{}, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return domain.Form{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	form.Title = strings.TrimSpace(form.Title)
	return form, nil
}

// LoadDir loads and validates every form document in dir, ordered by file name.
// Files with other extensions are skipped.
func LoadDir(dir string) ([]domain.Form, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	forms := make([]domain.Form, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		form, err := LoadForm(path)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateForm(form.Title, form.Questions); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		forms = append(forms, form)
	}
	return forms, nil
}
