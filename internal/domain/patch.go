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

	"canvasstudio/internal/vector"
)

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }

// NodePatch is a partial update of a node's common fields. Nil fields are left unchanged.
type NodePatch struct {
	Position *vector.Pt
	Size     *vector.Size
	Rotation *float64
}

// Empty reports whether the patch changes nothing.
func (p NodePatch) Empty() bool { return p.Position == nil && p.Size == nil && p.Rotation == nil }

// Apply returns n with the patch applied.
func (p NodePatch) Apply(n Node) Node {
	if p.Position != nil {
		n.Position = *p.Position
	}
	if p.Size != nil {
		n.Size = *p.Size
	}
	if p.Rotation != nil {
		n.Rotation = *p.Rotation
	}
	return n
}

// DataPatch is a partial update of a node payload. Each variant has its own patch type.
type DataPatch interface {
	Kind() NodeType
	Empty() bool
	apply(Payload) Payload
}

type TextPatch struct {
	Text            *string
	BackgroundColor *string
}

type ImagePatch struct {
	Src      *string
	Alt      *string
	Prompt   *string
	MIMEType *string
	Raw      []byte // nil keeps the current bytes
}

type VideoPatch struct {
	Src     *string
	Caption *string
}

type VoicePatch struct {
	Src        *string
	Transcript *string
	Seconds    *float64
}

type LinkPatch struct {
	URL   *string
	Title *string
}

type TaskPatch struct {
	Text *string
	Done *bool
}

type DrawPatch struct {
	Points      []vector.Pt
	Color       *string
	StrokeWidth *float64
}

func (TextPatch) Kind() NodeType  { return TypeText }
func (ImagePatch) Kind() NodeType { return TypeImage }
func (VideoPatch) Kind() NodeType { return TypeVideo }
func (VoicePatch) Kind() NodeType { return TypeVoice }
func (LinkPatch) Kind() NodeType  { return TypeLink }
func (TaskPatch) Kind() NodeType  { return TypeTask }
func (DrawPatch) Kind() NodeType  { return TypeDraw }

func (p TextPatch) Empty() bool { return p.Text == nil && p.BackgroundColor == nil }
func (p ImagePatch) Empty() bool {
	return p.Src == nil && p.Alt == nil && p.Prompt == nil && p.MIMEType == nil && p.Raw == nil
}
func (p VideoPatch) Empty() bool { return p.Src == nil && p.Caption == nil }
func (p VoicePatch) Empty() bool { return p.Src == nil && p.Transcript == nil && p.Seconds == nil }
func (p LinkPatch) Empty() bool  { return p.URL == nil && p.Title == nil }
func (p TaskPatch) Empty() bool  { return p.Text == nil && p.Done == nil }
func (p DrawPatch) Empty() bool  { return p.Points == nil && p.Color == nil && p.StrokeWidth == nil }

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (p TextPatch) apply(cur Payload) Payload {
	d := cur.(TextData)
	set(&d.Text, p.Text)
	set(&d.BackgroundColor, p.BackgroundColor)
	return d
}

func (p ImagePatch) apply(cur Payload) Payload {
	d := cur.(ImageData)
	set(&d.Src, p.Src)
	set(&d.Alt, p.Alt)
	set(&d.Prompt, p.Prompt)
	set(&d.MIMEType, p.MIMEType)
	if p.Raw != nil {
		d.Raw = p.Raw
	}
	return d
}

func (p VideoPatch) apply(cur Payload) Payload {
	d := cur.(VideoData)
	set(&d.Src, p.Src)
	set(&d.Caption, p.Caption)
	return d
}

func (p VoicePatch) apply(cur Payload) Payload {
	d := cur.(VoiceData)
	set(&d.Src, p.Src)
	set(&d.Transcript, p.Transcript)
	set(&d.Seconds, p.Seconds)
	return d
}

func (p LinkPatch) apply(cur Payload) Payload {
	d := cur.(LinkData)
	set(&d.URL, p.URL)
	set(&d.Title, p.Title)
	return d
}

func (p TaskPatch) apply(cur Payload) Payload {
	d := cur.(TaskData)
	set(&d.Text, p.Text)
	set(&d.Done, p.Done)
	return d
}

func (p DrawPatch) apply(cur Payload) Payload {
	d := cur.(DrawData)
	if p.Points != nil {
		d.Points = append([]vector.Pt(nil), p.Points...)
	}
	set(&d.Color, p.Color)
	set(&d.StrokeWidth, p.StrokeWidth)
	return d
}

// ApplyData returns n with the payload patch shallow-merged in.
// The patch variant must match the node variant.
func ApplyData(n Node, p DataPatch) (Node, error) {
	if p == nil {
		return n, nil
	}
	if n.Data == nil || p.Kind() != n.Data.Kind() {
		return n, fmt.Errorf("%w: node %q, patch %q", ErrPayloadMismatch, n.Type, p.Kind())
	}
	if _, unknown := n.Data.(UnknownData); unknown {
		return n, fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
	n.Data = p.apply(n.Data)
	return n, nil
}
