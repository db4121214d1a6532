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
	"fmt"
	"strings"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/vector"
)

const videoMIME = "video/mp4"

// VideoRequest asks for a new video node. Prompt may be empty when Source is set.
type VideoRequest struct {
	Prompt string
	Aspect genai.AspectRatio
	Source *genai.Image
	// SourceNodeID is the image being animated; the video is placed beside it.
	SourceNodeID string
	At           *vector.Pt
}

// GenerateVideo starts a long-running video generation, polls it every poll
// interval up to the attempt limit, materializes the media and adds one video
// node. The context cancels the wait.
func (o *Orchestrator) GenerateVideo(ctx context.Context, req VideoRequest) (domain.Node, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Aspect == "" {
		req.Aspect = genai.Landscape
	}
	if req.Source != nil && req.Source.Empty() {
		req.Source = nil
	}
	if (prompt == "" && req.Source == nil) || !req.Aspect.ValidFor(genai.VideoAspects) {
		return domain.Node{}, fmt.Errorf("generate video: %w", ErrInvalidInput)
	}
	log := o.log.With("op", OpGenerateVideo)

	op, err := o.provider.GenerateVideo(ctx, prompt, req.Aspect, req.Source)
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateVideo, prompt, err)
	}
	log.InfoContext(ctx, "video operation started", "operation", op.Name)

	uri, err := o.await(ctx, op)
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateVideo, prompt, err, "operation", op.Name)
	}
	data, err := o.provider.FetchMedia(ctx, uri)
	if err == nil && len(data) == 0 {
		err = genai.ErrEmptyResponse
	}
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateVideo, prompt, err, "operation", op.Name)
	}
	src, path, err := o.materialize(ctx, storage.KindVideo, videoMIME, data)
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateVideo, prompt, err, "operation", op.Name)
	}

	size := domain.DefaultSize(domain.TypeVideo)
	if req.Aspect == genai.Portrait {
		size = vector.Size{W: size.H, H: size.W}
	}
	n, err := o.store.AddNode(domain.NodeSpec{
		Type:     domain.TypeVideo,
		Position: o.videoPlacement(req, size),
		Size:     size,
		Data:     domain.VideoData{Src: src, Caption: o.caption(prompt, req.SourceNodeID)},
	})
	if err != nil {
		return domain.Node{}, o.fail(ctx, OpGenerateVideo, prompt, err)
	}
	o.succeed(ctx, OpGenerateVideo, prompt, path, "node", n.ID, "bytes", len(data))
	return n, nil
}

// await polls op until it is done and returns its media location.
func (o *Orchestrator) await(ctx context.Context, op genai.Operation) (string, error) {
	for attempt := 1; attempt <= o.maxPolls; attempt++ {
		if err := o.sleep(ctx, o.pollInterval); err != nil {
			return "", err
		}
		st, err := o.provider.PollVideo(ctx, op)
		if err != nil {
			return "", fmt.Errorf("poll %s: %w", op.Name, err)
		}
		if !st.Done {
			o.log.DebugContext(ctx, "video not ready", "operation", op.Name, "attempt", attempt)
			continue
		}
		if st.MediaURI == "" {
			return "", fmt.Errorf("operation %s finished without media: %w", op.Name, genai.ErrEmptyResponse)
		}
		return st.MediaURI, nil
	}
	return "", fmt.Errorf("operation %s after %d polls: %w", op.Name, o.maxPolls, genai.ErrOperationTimeout)
}

// materialize turns media bytes into a playable source: a cached file when a
// media store is configured, a data URI otherwise.
func (o *Orchestrator) materialize(ctx context.Context, kind, mime string, data []byte) (src, path string, err error) {
	if o.media == nil {
		return DataURI(mime, data), "", nil
	}
	e, err := o.media.Put(ctx, kind, mime, data)
	if err != nil {
		return "", "", fmt.Errorf("cache %s: %w", kind, err)
	}
	return e.URI(), e.Path, nil
}

func (o *Orchestrator) caption(prompt, sourceID string) string {
	if prompt != "" {
		return prompt
	}
	if n, ok := o.store.Node(sourceID); ok {
		if d, ok := n.Image(); ok && strings.TrimSpace(d.Alt) != "" {
			return "Animation of " + strings.TrimSpace(d.Alt)
		}
	}
	return "Animated image"
}

// videoPlacement puts an animation to the right of its source image, else at
// the requested or centred position.
func (o *Orchestrator) videoPlacement(req VideoRequest, size vector.Size) vector.Pt {
	if req.At == nil && req.SourceNodeID != "" {
		if n, ok := o.store.Node(req.SourceNodeID); ok {
			return vector.Pt{X: n.Position.X + n.Size.W + analysisGap, Y: n.Position.Y}
		}
	}
	return o.placement(req.At, size)
}
