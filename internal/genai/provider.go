/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package genai is the contract with the external generative-AI provider and
// a REST client implementing it.
package genai

import (
	"context"
	"errors"
	"fmt"
)

// AspectRatio is a requested output shape, e.g. "16:9".
type AspectRatio string

const (
	Square    AspectRatio = "1:1"
	Landscape AspectRatio = "16:9"
	Portrait  AspectRatio = "9:16"
	Classic   AspectRatio = "4:3"
	Tall      AspectRatio = "3:4"
)

// ImageAspects and VideoAspects list the ratios each operation accepts.
var (
	ImageAspects = []AspectRatio{Square, Landscape, Portrait, Classic, Tall}
	VideoAspects = []AspectRatio{Landscape, Portrait}
)

func (a AspectRatio) ValidFor(set []AspectRatio) bool {
	for _, x := range set {
		if x == a {
			return true
		}
	}
	return false
}

// Image is an encoded image with its MIME type.
type Image struct {
	Bytes    []byte
	MIMEType string
}

// Empty reports whether the image carries no bytes.
func (i Image) Empty() bool { return len(i.Bytes) == 0 }

// Operation is a handle to a long-running provider task.
type Operation struct {
	Name string
}

// OperationStatus is the result of polling an operation.
type OperationStatus struct {
	Done bool
	// MediaURI is set once Done; it is fetched with FetchMedia.
	MediaURI string
}

// ReasoningTier selects between the fast and the deep conversational model.
type ReasoningTier int

const (
	TierFast ReasoningTier = iota
	TierDeep
)

func (t ReasoningTier) String() string {
	if t == TierDeep {
		return "deep"
	}
	return "fast"
}

// Turn is one message of a conversation.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// ConverseRequest bundles the inputs of conversational assistance.
type ConverseRequest struct {
	// Graph is the serialized description of the whole canvas.
	Graph    string
	Selected []string
	Query    string
	History  []Turn
	Tier     ReasoningTier
}

// Provider is the external generative-AI collaborator.
type Provider interface {
	GenerateImage(ctx context.Context, prompt string, aspect AspectRatio) (Image, error)
	EditImage(ctx context.Context, src Image, instruction string) (Image, error)
	AnalyzeImage(ctx context.Context, src Image, instruction string) (string, error)
	GenerateVideo(ctx context.Context, prompt string, aspect AspectRatio, src *Image) (Operation, error)
	PollVideo(ctx context.Context, op Operation) (OperationStatus, error)
	FetchMedia(ctx context.Context, uri string) ([]byte, error)
	// SynthesizeSpeech returns raw 16-bit little-endian mono PCM at SpeechSampleRate.
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
	Converse(ctx context.Context, req ConverseRequest) (string, error)
}

var (
	// ErrBillingRequired means the provider project has no billing enabled;
	// video generation needs it.
	ErrBillingRequired = errors.New("provider project requires billing")
	// ErrEmptyResponse is returned when the provider answered without usable content.
	ErrEmptyResponse = errors.New("provider returned no content")
	// ErrOperationTimeout is returned when a long-running operation did not finish in time.
	ErrOperationTimeout = errors.New("operation did not finish in time")
	// ErrNoAPIKey is returned when no provider key is configured.
	ErrNoAPIKey = errors.New("no provider API key configured")
)

// APIError is a non-2xx provider response.
type APIError struct {
	Status  int    // HTTP status
	Code    string // provider status string, e.g. FAILED_PRECONDITION
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrBillingRequired) match billing failures.
func (e *APIError) Is(target error) bool {
	return target == ErrBillingRequired && e.billing()
}
