/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package orchestrator

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/vector"
)

// AnalysisInstruction is sent with every image analysis.
const AnalysisInstruction = "Describe this image for a student in two or three short sentences. Mention the main subject, the setting and anything unusual."

// analysisGap separates an analyzed image from the text node placed below it.
const analysisGap = 20.0

// ImageRequest asks for a new image node.
type ImageRequest struct {
	Prompt string
	Aspect genai.AspectRatio
	// At is the world position of the new node; nil centres it in the viewport.
	At *vector.Pt
}

// GenerateImage generates an image and adds it as a new node.
func (o *Orchestrator) GenerateImage(ctx context.Context, req ImageRequest) (domain.Node, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Aspect == "" {
		req.Aspect = genai.Square
	}
	if prompt == "" || !req.Aspect.ValidFor(genai.ImageAspects) {
		return domain.Node{}, fmt.Errorf("generate image: %w", ErrInvalidInput)
	}
	img, err := o.provider.GenerateImage(ctx, prompt, req.Aspect)
	if err == nil && img.Empty() {
		err = genai.ErrEmptyResponse
	}
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateImage, prompt, err, "aspect", req.Aspect)
	}
	size := AspectSize(req.Aspect, domain.DefaultSize(domain.TypeImage).W)
	n, err := o.store.AddNode(domain.NodeSpec{
		Type:     domain.TypeImage,
		Position: o.placement(req.At, size),
		Size:     size,
		Data: domain.ImageData{
			Src:      DataURI(img.MIMEType, img.Bytes),
			Alt:      prompt,
			Prompt:   prompt,
			MIMEType: img.MIMEType,
			Raw:      img.Bytes,
		},
	})
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateImage, prompt, err)
	}
	o.succeed(ctx, OpGenerateImage, prompt, "", "node", n.ID)
	return n, nil
}

// EditImage rewrites an existing image node following instruction. The node
// is replaced in a single update, or not at all.
func (o *Orchestrator) EditImage(ctx context.Context, nodeID, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return fmt.Errorf("edit image: %w", ErrInvalidInput)
	}
	src, err := o.loadedImage(nodeID)
	if err != nil {
		return err
	}
	img, err := o.provider.EditImage(ctx, genai.Image{Bytes: src.Raw, MIMEType: src.MIMEType}, instruction)
	if err == nil && img.Empty() {
		err = genai.ErrEmptyResponse
	}
	if err != nil {
		return o.fail(ctx, OpEditImage, instruction, err, "node", nodeID)
	}
	alt := fmt.Sprintf("%s (edited: %s)", strings.TrimSpace(src.Alt), instruction)
	if strings.TrimSpace(src.Alt) == "" {
		alt = "Edited: " + instruction
	}
	uri := DataURI(img.MIMEType, img.Bytes)
	ok, err := o.store.UpdateNodeData(nodeID, domain.ImagePatch{
		Src:      &uri,
		Alt:      &alt,
		Prompt:   &instruction,
		MIMEType: &img.MIMEType,
		Raw:      img.Bytes,
	})
	if err != nil {
		return o.fail(ctx, OpEditImage, instruction, err, "node", nodeID)
	}
	if !ok {
		o.log.DebugContext(ctx, "edited node no longer exists", "node", nodeID)
		return nil
	}
	o.succeed(ctx, OpEditImage, instruction, "", "node", nodeID)
	return nil
}

// Analyze describes an image node and places the description in a new text
// node directly below it. Nothing is added if the image was deleted meanwhile.
func (o *Orchestrator) Analyze(ctx context.Context, nodeID string) (domain.Node, bool, error) {
	src, err := o.loadedImage(nodeID)
	if err != nil {
		return domain.Node{}, false, err
	}
	text, err := o.provider.AnalyzeImage(ctx, genai.Image{Bytes: src.Raw, MIMEType: src.MIMEType}, AnalysisInstruction)
	if err == nil && strings.TrimSpace(text) == "" {
		err = genai.ErrEmptyResponse
	}
	if err != nil {
		return domain.Node{}, false, o.fail(ctx, OpAnalyzeImage, "", err, "node", nodeID)
	}
	img, ok := o.store.Node(nodeID)
	if !ok {
		o.log.DebugContext(ctx, "analyzed node no longer exists", "node", nodeID)
		return domain.Node{}, false, nil
	}
	size := domain.DefaultSize(domain.TypeText)
	size.W = max(size.W, img.Size.W)
	size.H = max(size.H, 150)
	n, err := o.store.AddNode(domain.NodeSpec{
		Type:     domain.TypeText,
		Position: vector.Pt{X: img.Position.X, Y: img.Position.Y + img.Size.H + analysisGap},
		Size:     size,
		Data:     domain.TextData{Text: strings.TrimSpace(text)},
	})
	if err != nil {
		return domain.Node{}, false, o.fail(ctx, OpAnalyzeImage, "", err, "node", nodeID)
	}
	o.succeed(ctx, OpAnalyzeImage, "", "", "node", nodeID, "text_node", n.ID)
	return n, true, nil
}

// AnalyzeImage starts Analyze in the background. Only the loaded check fails
// synchronously so the caller can refuse the action.
func (o *Orchestrator) AnalyzeImage(nodeID string) error {
	if _, err := o.loadedImage(nodeID); err != nil {
		return err
	}
	return o.Go(NodeKey(OpAnalyzeImage, nodeID), func(ctx context.Context) {
		_, _, _ = o.Analyze(ctx, nodeID)
	})
}

// loadedImage returns the payload of an image node whose bytes are available.
func (o *Orchestrator) loadedImage(nodeID string) (domain.ImageData, error) {
	n, ok := o.store.Node(nodeID)
	if !ok {
		return domain.ImageData{}, fmt.Errorf("image %s: %w", nodeID, ErrInvalidInput)
	}
	d, ok := n.Image()
	if !ok {
		return domain.ImageData{}, fmt.Errorf("node %s is not an image: %w", nodeID, ErrInvalidInput)
	}
	if !d.Loaded() {
		return domain.ImageData{}, canvas.ErrImageNotLoaded
	}
	return d, nil
}

// placement returns at, or the world position that centres a node of size in the viewport.
func (o *Orchestrator) placement(at *vector.Pt, size vector.Size) vector.Pt {
	if at != nil {
		return *at
	}
	c := o.store.ScreenToWorld(o.store.ViewportCenter())
	return vector.Pt{X: c.X - size.W/2, Y: c.Y - size.H/2}
}

// AspectSize returns a node size of the given width with the aspect's proportions.
func AspectSize(a genai.AspectRatio, width float64) vector.Size {
	var w, h float64
	if _, err := fmt.Sscanf(string(a), "%f:%f", &w, &h); err != nil || w <= 0 || h <= 0 {
		return vector.Size{W: width, H: width}
	}
	return vector.Size{W: width, H: width * h / w}
}

// DataURI embeds bytes as a data: URI usable as a node source.
func DataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// NodeKey is the in-flight key of a node-scoped operation.
func NodeKey(op, nodeID string) string { return op + ":" + nodeID }

// ModalKey is the in-flight key of a modal instance.
func ModalKey(seq int64) string { return fmt.Sprintf("modal:%d", seq) }
