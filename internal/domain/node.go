/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the canvas node model. A node is a positioned, sized,
// typed unit of content; the variant tag and the payload shape are checked
// together whenever a node is constructed.

import (
	"errors"
	"fmt"

	"canvasstudio/internal/vector"
)

// NodeType is the variant tag of a canvas node.
type NodeType string

const (
	TypeText  NodeType = "text"
	TypeImage NodeType = "image"
	TypeVideo NodeType = "video"
	TypeVoice NodeType = "voice"
	TypeLink  NodeType = "link"
	TypeTask  NodeType = "task"
	TypeDraw  NodeType = "draw"
)

// KnownTypes lists the closed set of node variants.
var KnownTypes = []NodeType{TypeText, TypeImage, TypeVideo, TypeVoice, TypeLink, TypeTask, TypeDraw}

func (t NodeType) Known() bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

var (
	// ErrPayloadMismatch is returned when a payload does not belong to the node's variant.
	ErrPayloadMismatch = errors.New("payload does not match node type")
	// ErrUnknownNodeType is returned when constructing a node of a type outside the closed set.
	ErrUnknownNodeType = errors.New("unknown node type")
)

// Payload is the variant-specific part of a node. The set of implementations is closed.
type Payload interface {
	Kind() NodeType
	payload()
}

// TextData is the payload of a text node.
type TextData struct {
	Text            string `json:"text"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// ImageData is the payload of an image node. Raw holds the decoded-ready
// binary image once it has been loaded; until then only Src is known.
type ImageData struct {
	Src      string `json:"src"`
	Alt      string `json:"alt,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Raw      []byte `json:"raw,omitempty"`
}

// Loaded reports whether the binary image payload is available.
func (d ImageData) Loaded() bool { return len(d.Raw) > 0 }

// VideoData is the payload of a video node.
type VideoData struct {
	Src     string `json:"src"`
	Caption string `json:"caption,omitempty"`
}

// VoiceData is the payload of a recorded or synthesized audio clip.
type VoiceData struct {
	Src        string  `json:"src"`
	Transcript string  `json:"transcript,omitempty"`
	Seconds    float64 `json:"seconds,omitempty"`
}

// LinkData is the payload of a web link card.
type LinkData struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// TaskData is the payload of a checklist item on the canvas.
type TaskData struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// DrawData is a freehand polyline relative to the node position.
type DrawData struct {
	Points      []vector.Pt `json:"points"`
	Color       string      `json:"color,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
}

// UnknownData carries a node of a variant this build does not know about.
// It is only produced when decoding; NewNode never accepts it.
type UnknownData struct {
	Type NodeType
	Raw  []byte
}

func (TextData) Kind() NodeType      { return TypeText }
func (ImageData) Kind() NodeType     { return TypeImage }
func (VideoData) Kind() NodeType     { return TypeVideo }
func (VoiceData) Kind() NodeType     { return TypeVoice }
func (LinkData) Kind() NodeType      { return TypeLink }
func (TaskData) Kind() NodeType      { return TypeTask }
func (DrawData) Kind() NodeType      { return TypeDraw }
func (d UnknownData) Kind() NodeType { return d.Type }

func (TextData) payload()    {}
func (ImageData) payload()   {}
func (VideoData) payload()   {}
func (VoiceData) payload()   {}
func (LinkData) payload()    {}
func (TaskData) payload()    {}
func (DrawData) payload()    {}
func (UnknownData) payload() {}

// Node is one canvas node. Position is the top-left corner in world
// coordinates; Rotation is in degrees about that corner.
type Node struct {
	ID       string
	Type     NodeType
	Position vector.Pt
	Size     vector.Size
	Rotation float64
	Data     Payload
}

// NodeSpec describes a node to be created; the store assigns the id.
type NodeSpec struct {
	Type     NodeType
	Position vector.Pt
	Size     vector.Size
	Rotation float64
	Data     Payload
}

// Validate checks that the variant tag is known and matches the payload.
func (s NodeSpec) Validate() error {
	if !s.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, s.Type)
	}
	if s.Data == nil || s.Data.Kind() != s.Type {
		got := NodeType("<nil>")
		if s.Data != nil {
			got = s.Data.Kind()
		}
		return fmt.Errorf("%w: node %q, payload %q", ErrPayloadMismatch, s.Type, got)
	}
	if _, unknown := s.Data.(UnknownData); unknown {
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, s.Type)
	}
	return nil
}

// NewNode builds a node from spec with the given id.
func NewNode(id string, s NodeSpec) (Node, error) {
	if err := s.Validate(); err != nil {
		return Node{}, err
	}
	return Node{ID: id, Type: s.Type, Position: s.Position, Size: s.Size, Rotation: s.Rotation, Data: s.Data}, nil
}

// Box returns the node's geometry for hit testing and bounds.
func (n Node) Box() vector.Box { return vector.NewBox(n.Position, n.Size, n.Rotation) }

// Rect is the unrotated world rectangle [position, position+size].
func (n Node) Rect() vector.Rect {
	return vector.R(n.Position.X, n.Position.Y, n.Size.W, n.Size.H)
}

// Text returns the node's text payload when it is a text node.
func (n Node) Text() (TextData, bool) {
	d, ok := n.Data.(TextData)
	return d, ok
}

// Image returns the node's image payload when it is an image node.
func (n Node) Image() (ImageData, bool) {
	d, ok := n.Data.(ImageData)
	return d, ok
}

// Video returns the node's video payload when it is a video node.
func (n Node) Video() (VideoData, bool) {
	d, ok := n.Data.(VideoData)
	return d, ok
}

// Default sizes for nodes created by the toolbar and by generation results.
var DefaultSizes = map[NodeType]vector.Size{
	TypeText:  {W: 200, H: 100},
	TypeImage: {W: 300, H: 300},
	TypeVideo: {W: 400, H: 225},
	TypeVoice: {W: 240, H: 64},
	TypeLink:  {W: 260, H: 80},
	TypeTask:  {W: 220, H: 48},
	TypeDraw:  {W: 200, H: 200},
}

// DefaultSize returns the creation size for t.
func DefaultSize(t NodeType) vector.Size {
	if s, ok := DefaultSizes[t]; ok {
		return s
	}
	return vector.Size{W: 200, H: 100}
}

// Connection is an optional labelled edge between two nodes.
type Connection struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}
