/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

// Lesson is a catalog entry: a title and an ordered list of task strings.
type Lesson struct {
	ID    string   `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
	Tasks []string `json:"tasks" yaml:"tasks"`
}

// Task is one checklist item of an assigned lesson plan.
type Task struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// LessonPlan is the checklist currently assigned to the workspace.
// Task indices are stable; tasks are never reordered.
type LessonPlan struct {
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// NewLessonPlan creates a fresh plan from a catalog lesson with every task open.
func NewLessonPlan(l Lesson) LessonPlan {
	p := LessonPlan{Title: l.Title, Tasks: make([]Task, len(l.Tasks))}
	for i, t := range l.Tasks {
		p.Tasks[i] = Task{Text: t}
	}
	return p
}

// Toggle flips the completed flag of task i.
func (p *LessonPlan) Toggle(i int) error {
	if i < 0 || i >= len(p.Tasks) {
		return fmt.Errorf("task index %d out of range [0,%d)", i, len(p.Tasks))
	}
	p.Tasks[i].Completed = !p.Tasks[i].Completed
	return nil
}

func (p LessonPlan) Total() int { return len(p.Tasks) }

func (p LessonPlan) CompletedCount() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Progress returns the completed percentage in [0,100]; 0 for an empty plan.
func (p LessonPlan) Progress() float64 {
	total := p.Total()
	if total == 0 {
		return 0
	}
	return float64(p.CompletedCount()) / float64(total) * 100
}

// Clone returns a deep copy so callers cannot mutate the stored task slice.
func (p LessonPlan) Clone() LessonPlan {
	p.Tasks = append([]Task(nil), p.Tasks...)
	return p
}

// Slug derives a stable catalog id from a title ("Explore the Solar System" -> "explore-the-solar-system").
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
