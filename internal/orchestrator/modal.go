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
	"strings"

	"canvasstudio/internal/genai"
	"canvasstudio/internal/workspace"
)

// ModalInput is what the user entered in a generation modal.
type ModalInput struct {
	Prompt string
	Aspect genai.AspectRatio
	Deep   bool
}

// CanSubmit reports whether the modal's submit control should be enabled.
func (o *Orchestrator) CanSubmit(m workspace.Modal, in ModalInput) bool {
	if o.Pending(ModalKey(m.Seq)) {
		return false
	}
	prompt := strings.TrimSpace(in.Prompt)
	switch m.Type {
	case workspace.ModalGenerateImage:
		return prompt != "" && (in.Aspect == "" || in.Aspect.ValidFor(genai.ImageAspects))
	case workspace.ModalEditImage:
		if prompt == "" {
			return false
		}
		_, err := o.loadedImage(m.Payload.NodeID)
		return err == nil
	case workspace.ModalGenerateVideo:
		hasSource := len(m.Payload.SourceImage) > 0
		return (prompt != "" || hasSource) && (in.Aspect == "" || in.Aspect.ValidFor(genai.VideoAspects))
	case workspace.ModalAssistant:
		return prompt != ""
	}
	return false
}

// Submit runs the modal's operation in the background. At most one task runs
// per modal instance. On success generation modals close themselves, unless a
// newer modal replaced them meanwhile; on failure the modal stays open and a
// notice is emitted.
func (o *Orchestrator) Submit(m workspace.Modal, in ModalInput) error {
	if !o.CanSubmit(m, in) {
		if o.Pending(ModalKey(m.Seq)) {
			return ErrBusy
		}
		return ErrInvalidInput
	}
	return o.Go(ModalKey(m.Seq), func(ctx context.Context) {
		var err error
		closeOnSuccess := true
		switch m.Type {
		case workspace.ModalGenerateImage:
			_, err = o.GenerateImage(ctx, ImageRequest{Prompt: in.Prompt, Aspect: in.Aspect, At: m.Payload.Position})
		case workspace.ModalEditImage:
			err = o.EditImage(ctx, m.Payload.NodeID, in.Prompt)
		case workspace.ModalGenerateVideo:
			req := VideoRequest{Prompt: in.Prompt, Aspect: in.Aspect, SourceNodeID: m.Payload.NodeID, At: m.Payload.Position}
			if len(m.Payload.SourceImage) > 0 {
				req.Source = &genai.Image{Bytes: m.Payload.SourceImage, MIMEType: m.Payload.SourceMIME}
			}
			_, err = o.GenerateVideo(ctx, req)
		case workspace.ModalAssistant:
			closeOnSuccess = false
			_, err = o.Ask(ctx, in.Prompt, in.Deep)
		}
		if err == nil && closeOnSuccess {
			o.store.CloseModalIf(m.Seq)
		}
	})
}
