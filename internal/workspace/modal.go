/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import "canvasstudio/internal/vector"

// ModalType names the dialogs the workspace can show. At most one is open.
type ModalType string

const (
	ModalGenerateImage ModalType = "generate-image"
	ModalEditImage     ModalType = "edit-image"
	ModalGenerateVideo ModalType = "generate-video"
	ModalVideoPlayer   ModalType = "video-player"
	ModalAssistant     ModalType = "assistant"
)

// ModalPayload carries what the opened dialog needs. Fields are optional and
// depend on the modal type.
type ModalPayload struct {
	// NodeID is the node the dialog acts on (edit target, animate source).
	NodeID string
	// Position is where a generated node should be placed, in world units.
	Position *vector.Pt
	// SourceImage seeds video generation in animate mode.
	SourceImage []byte
	SourceMIME  string
	// VideoSrc is the location played by the video player.
	VideoSrc string
}

// Modal is one open dialog. Seq identifies this opening; reopening the same
// type yields a new Seq.
type Modal struct {
	Seq     int64
	Type    ModalType
	Payload ModalPayload
}

// OpenModal replaces any open dialog and returns the new one.
func (s *Store) OpenModal(t ModalType, p ModalPayload) Modal {
	s.mu.Lock()
	s.modalSeq++
	m := Modal{Seq: s.modalSeq, Type: t, Payload: p}
	s.modal = &m
	s.mu.Unlock()
	s.emit(Event{Kind: ModalChanged})
	return m
}

// CloseModal closes the open dialog, if any.
func (s *Store) CloseModal() {
	s.mu.Lock()
	if s.modal == nil {
		s.mu.Unlock()
		return
	}
	s.modal = nil
	s.mu.Unlock()
	s.emit(Event{Kind: ModalChanged})
}

// CloseModalIf closes the dialog only if it is still the opening identified by seq.
func (s *Store) CloseModalIf(seq int64) bool {
	s.mu.Lock()
	if s.modal == nil || s.modal.Seq != seq {
		s.mu.Unlock()
		return false
	}
	s.modal = nil
	s.mu.Unlock()
	s.emit(Event{Kind: ModalChanged})
	return true
}

// ActiveModal returns the open dialog.
func (s *Store) ActiveModal() (Modal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modal == nil {
		return Modal{}, false
	}
	return *s.modal, true
}
