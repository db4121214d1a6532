/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout breaks node text into lines that fit a box, measuring
// with an x/image font face.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face is the deterministic fallback face used when none is given.
var Face font.Face = basicfont.Face7x13

// Metrics are the rounded pixel metrics of a face.
type Metrics struct {
	Ascent, Descent, LineHeight int
}

// MetricsOf returns the pixel metrics of face.
func MetricsOf(face font.Face) Metrics {
	if face == nil {
		face = Face
	}
	m := face.Metrics()
	return Metrics{Ascent: m.Ascent.Round(), Descent: m.Descent.Round(), LineHeight: m.Height.Round()}
}

// Width measures s in whole pixels.
func Width(face font.Face, s string) int {
	if face == nil {
		face = Face
	}
	return font.MeasureString(face, s).Round()
}

// Box is laid out text.
type Box struct {
	Lines  []string
	Width  int
	Height int
	// Truncated is set when lines were dropped to respect a height limit.
	Truncated bool
}

// Wrap breaks text on spaces and explicit newlines so that no line exceeds
// maxWidth pixels. A single word wider than maxWidth is split by characters.
// maxHeight > 0 drops lines that do not fit and ends the last kept line with an
// ellipsis.
func Wrap(face font.Face, text string, maxWidth, maxHeight int) Box {
	if face == nil {
		face = Face
	}
	met := MetricsOf(face)
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(face, para, maxWidth)...)
	}
	b := Box{Lines: lines}
	if maxHeight > 0 && met.LineHeight > 0 {
		fit := maxHeight / met.LineHeight
		if fit < len(b.Lines) {
			b.Truncated = true
			b.Lines = b.Lines[:max(fit, 0)]
			if n := len(b.Lines); n > 0 {
				b.Lines[n-1] = ellipsize(face, b.Lines[n-1], maxWidth)
			}
		}
	}
	for _, l := range b.Lines {
		b.Width = max(b.Width, Width(face, l))
	}
	b.Height = len(b.Lines) * met.LineHeight
	return b
}

func wrapParagraph(face font.Face, para string, maxWidth int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	limit := fixed.I(maxWidth)
	space := font.MeasureString(face, " ")
	var (
		out []string
		cur strings.Builder
		w   fixed.Int26_6
	)
	flush := func() {
		out = append(out, cur.String())
		cur.Reset()
		w = 0
	}
	for _, word := range words {
		ww := font.MeasureString(face, word)
		if maxWidth > 0 && ww > limit {
			if cur.Len() > 0 {
				flush()
			}
			for _, piece := range splitWord(face, word, limit) {
				cur.WriteString(piece)
				flush()
			}
			continue
		}
		if cur.Len() > 0 && maxWidth > 0 && w+space+ww > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
			w += space
		}
		cur.WriteString(word)
		w += ww
	}
	if cur.Len() > 0 {
		flush()
	}
	return out
}

func splitWord(face font.Face, word string, limit fixed.Int26_6) []string {
	var out []string
	var cur []rune
	var w fixed.Int26_6
	for _, r := range word {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		if len(cur) > 0 && w+adv > limit {
			out = append(out, string(cur))
			cur, w = cur[:0], 0
		}
		cur = append(cur, r)
		w += adv
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func ellipsize(face font.Face, line string, maxWidth int) string {
	const dots = "..."
	r := []rune(line)
	for len(r) > 0 && maxWidth > 0 && Width(face, string(r)+dots) > maxWidth {
		r = r[:len(r)-1]
	}
	return strings.TrimRight(string(r), " ") + dots
}
