/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParams     `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt,omitempty"`
	Image  *encodedImage `json:"image,omitempty"`
}

type encodedImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType,omitempty"`
}

type predictParams struct {
	SampleCount int    `json:"sampleCount,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictResponse struct {
	Predictions []encodedImage `json:"predictions"`
}

// GenerateImage synthesizes one image for prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string, aspect AspectRatio) (Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return Image{}, fmt.Errorf("generate image: empty prompt")
	}
	req := predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParams{SampleCount: 1, AspectRatio: string(aspect)},
	}
	var resp predictResponse
	if err := c.doJSON(ctx, http.MethodPost, modelPath(c.models.Image, "predict"), req, &resp); err != nil {
		return Image{}, fmt.Errorf("generate image: %w", err)
	}
	for _, p := range resp.Predictions {
		if p.BytesBase64Encoded == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return Image{}, fmt.Errorf("generate image: decode: %w", err)
		}
		mime := p.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return Image{Bytes: b, MIMEType: mime}, nil
	}
	return Image{}, fmt.Errorf("generate image: %w", ErrEmptyResponse)
}

// EditImage applies instruction to src and returns the edited image.
func (c *Client) EditImage(ctx context.Context, src Image, instruction string) (Image, error) {
	if src.Empty() {
		return Image{}, fmt.Errorf("edit image: no source image")
	}
	resp, err := c.generate(ctx, c.models.Edit, generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{imagePart(src), textPart(instruction)}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	})
	if err != nil {
		return Image{}, fmt.Errorf("edit image: %w", err)
	}
	mime, b, err := resp.inline()
	if err != nil {
		return Image{}, fmt.Errorf("edit image: %w", err)
	}
	return Image{Bytes: b, MIMEType: mime}, nil
}

// AnalyzeImage asks the vision model to describe src following instruction.
func (c *Client) AnalyzeImage(ctx context.Context, src Image, instruction string) (string, error) {
	if src.Empty() {
		return "", fmt.Errorf("analyze image: no source image")
	}
	resp, err := c.generate(ctx, c.models.Vision, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{imagePart(src), textPart(instruction)}}},
	})
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}
	txt := resp.text()
	if txt == "" {
		return "", fmt.Errorf("analyze image: %w", ErrEmptyResponse)
	}
	return txt, nil
}
