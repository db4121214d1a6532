/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package lessons provides the catalog of assignable lessons: a built-in set,
// optionally extended or overridden by a YAML file that can be hot-reloaded.
package lessons

import (
	"sort"
	"strings"
	"sync"

	"canvasstudio/internal/domain"
)

var builtin = []domain.Lesson{
	{Title: "Explore the Solar System", Tasks: []string{
		"Add a text note naming the eight planets in order",
		"Generate an image of the Sun",
		"Ask the assistant why Pluto is a dwarf planet",
		"Analyze the Sun image and keep the description",
		"Generate an image of Saturn's rings",
		"Animate the Saturn image",
		"Have the description of the Sun read aloud",
		"Zoom to fit and review your canvas",
	}},
	{Title: "Parts of a Plant", Tasks: []string{
		"Generate an image of a flowering plant",
		"Analyze the image to list its parts",
		"Write a note explaining what roots do",
		"Edit the image to show the roots underground",
		"Ask the assistant how photosynthesis works",
	}},
	{Title: "Water Cycle Storyboard", Tasks: []string{
		"Create four text notes: evaporation, condensation, precipitation, collection",
		"Generate an image for each stage",
		"Generate a short video of rain falling on a lake",
		"Ask the assistant to check the order of your notes",
	}},
	{Title: "Fractions with Pizza", Tasks: []string{
		"Generate an image of a pizza cut into eight slices",
		"Write a note: what fraction is three slices?",
		"Edit the image so three slices are missing",
		"Read your note aloud",
	}},
}

// Builtin returns a copy of the built-in lessons with ids assigned.
func Builtin() []domain.Lesson {
	return normalize(builtin)
}

func normalize(in []domain.Lesson) []domain.Lesson {
	out := make([]domain.Lesson, len(in))
	for i, l := range in {
		l.Tasks = append([]string(nil), l.Tasks...)
		if strings.TrimSpace(l.ID) == "" {
			l.ID = domain.Slug(l.Title)
		}
		out[i] = l
	}
	return out
}

// Catalog is the live, concurrency-safe set of lessons.
type Catalog struct {
	mu      sync.RWMutex
	lessons []domain.Lesson
}

// NewCatalog starts with the built-in lessons.
func NewCatalog() *Catalog { return &Catalog{lessons: Builtin()} }

// List returns the lessons sorted by title.
func (c *Catalog) List() []domain.Lesson {
	c.mu.RLock()
	out := normalize(c.lessons)
	c.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Get looks a lesson up by id, falling back to a case-insensitive title match.
func (c *Catalog) Get(key string) (domain.Lesson, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.lessons {
		if l.ID == key {
			return normalize([]domain.Lesson{l})[0], true
		}
	}
	for _, l := range c.lessons {
		if strings.EqualFold(l.Title, key) {
			return normalize([]domain.Lesson{l})[0], true
		}
	}
	return domain.Lesson{}, false
}

// Merge replaces built-ins that share an id with extra and appends the rest.
// It resets to the built-ins first, so repeated merges do not accumulate.
func (c *Catalog) Merge(extra []domain.Lesson) {
	merged := Builtin()
	idx := make(map[string]int, len(merged))
	for i, l := range merged {
		idx[l.ID] = i
	}
	for _, l := range normalize(extra) {
		if i, ok := idx[l.ID]; ok {
			merged[i] = l
			continue
		}
		idx[l.ID] = len(merged)
		merged = append(merged, l)
	}
	c.mu.Lock()
	c.lessons = merged
	c.mu.Unlock()
}
