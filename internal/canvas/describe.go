/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"canvasstudio/internal/domain"
)

const summaryLimit = 80

// Describe serializes the graph for the assistant: one line per node with its
// type, world position, a one-line summary, and a marker on selected nodes.
func Describe(nodes []domain.Node, selected []string) string {
	if len(nodes) == 0 {
		return "The canvas is empty."
	}
	sel := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		sel[id] = struct{}{}
	}
	var b strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&b, "- %s %s at (%.0f, %.0f)", n.Type, n.ID, n.Position.X, n.Position.Y)
		if s := Summary(n); s != "" {
			fmt.Fprintf(&b, ": %s", s)
		}
		if _, ok := sel[n.ID]; ok {
			b.WriteString(" [selected]")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Summary is a short single-line description of a node's content.
func Summary(n domain.Node) string {
	var s string
	switch d := n.Data.(type) {
	case domain.TextData:
		s = fmt.Sprintf("%q", oneLine(d.Text))
	case domain.ImageData:
		s = "image"
		if d.Alt != "" {
			s = fmt.Sprintf("image of %s", oneLine(d.Alt))
		}
	case domain.VideoData:
		s = fmt.Sprintf("video %q", oneLine(d.Caption))
	case domain.VoiceData:
		s = fmt.Sprintf("voice note %.0fs", d.Seconds)
		if d.Transcript != "" {
			s += fmt.Sprintf(" %q", oneLine(d.Transcript))
		}
	case domain.LinkData:
		s = d.URL
		if d.Title != "" {
			s = fmt.Sprintf("%s (%s)", oneLine(d.Title), d.URL)
		}
	case domain.TaskData:
		box := "[ ]"
		if d.Done {
			box = "[x]"
		}
		s = box + " " + oneLine(d.Text)
	case domain.DrawData:
		s = fmt.Sprintf("drawing with %d points", len(d.Points))
	default:
		s = "unsupported content"
	}
	return s
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= summaryLimit {
		return s
	}
	r := []rune(s)
	return string(r[:summaryLimit-1]) + "…"
}
