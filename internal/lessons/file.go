/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package lessons

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"canvasstudio/internal/domain"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// catalogFile is the on-disk shape:
//
//	lessons:
//	  - title: Explore the Solar System
//	    tasks: [ ... ]
type catalogFile struct {
	Lessons []domain.Lesson `yaml:"lessons" json:"lessons"`
}

// ValidationError lists schema violations of a catalog file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lesson catalog %s is invalid: %s", e.Path, strings.Join(e.Problems, "; "))
}

// LoadFile reads and validates a YAML catalog.
func LoadFile(path string) ([]domain.Lesson, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse validates YAML catalog bytes against the catalog schema and decodes them.
// name is only used in error messages.
func Parse(name string, data []byte) ([]domain.Lesson, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if generic == nil {
		return nil, &ValidationError{Path: name, Problems: []string{"file is empty"}}
	}
	// yaml.v3 decodes mappings with string keys, so the tree converts to JSON directly.
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", name, err)
	}
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(asJSON))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	if !res.Valid() {
		ve := &ValidationError{Path: name}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, e.String())
		}
		return nil, ve
	}
	var cf catalogFile
	if err := json.Unmarshal(asJSON, &cf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	out := normalize(cf.Lessons)
	seen := make(map[string]bool, len(out))
	for _, l := range out {
		if seen[l.ID] {
			return nil, &ValidationError{Path: name, Problems: []string{fmt.Sprintf("duplicate lesson id %q", l.ID)}}
		}
		seen[l.ID] = true
	}
	return out, nil
}

// LoadInto merges the file at path into c. A missing file leaves the built-ins in place.
func LoadInto(c *Catalog, path string) error {
	if path == "" {
		return nil
	}
	ls, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c.Merge(nil)
		return nil
	}
	if err != nil {
		return err
	}
	c.Merge(ls)
	return nil
}
