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
	"io"
	"net/http"
	"strings"
)

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// GenerateVideo starts a long-running video synthesis. src, when set, is animated.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, aspect AspectRatio, src *Image) (Operation, error) {
	inst := predictInstance{Prompt: prompt}
	if src != nil && !src.Empty() {
		mime := src.MIMEType
		if mime == "" {
			mime = http.DetectContentType(src.Bytes)
		}
		inst.Image = &encodedImage{BytesBase64Encoded: base64.StdEncoding.EncodeToString(src.Bytes), MIMEType: mime}
	}
	if strings.TrimSpace(prompt) == "" && inst.Image == nil {
		return Operation{}, fmt.Errorf("generate video: prompt or source image required")
	}
	req := predictRequest{Instances: []predictInstance{inst}, Parameters: predictParams{AspectRatio: string(aspect)}}
	var resp operationResponse
	if err := c.doJSON(ctx, http.MethodPost, modelPath(c.models.Video, "predictLongRunning"), req, &resp); err != nil {
		return Operation{}, fmt.Errorf("generate video: %w", err)
	}
	if resp.Name == "" {
		return Operation{}, fmt.Errorf("generate video: %w", ErrEmptyResponse)
	}
	return Operation{Name: resp.Name}, nil
}

// PollVideo fetches the current state of op.
func (c *Client) PollVideo(ctx context.Context, op Operation) (OperationStatus, error) {
	var resp operationResponse
	if err := c.doJSON(ctx, http.MethodGet, op.Name, nil, &resp); err != nil {
		return OperationStatus{}, fmt.Errorf("poll %s: %w", op.Name, err)
	}
	if resp.Error != nil {
		e := &APIError{Status: resp.Error.Code, Message: resp.Error.Message}
		return OperationStatus{}, fmt.Errorf("poll %s: %w", op.Name, e)
	}
	if !resp.Done {
		return OperationStatus{}, nil
	}
	for _, s := range resp.Response.GenerateVideoResponse.GeneratedSamples {
		if s.Video.URI != "" {
			return OperationStatus{Done: true, MediaURI: s.Video.URI}, nil
		}
	}
	return OperationStatus{}, fmt.Errorf("poll %s: %w", op.Name, ErrEmptyResponse)
}

// FetchMedia downloads a media location returned by PollVideo.
func (c *Client) FetchMedia(ctx context.Context, uri string) ([]byte, error) {
	if c.key == "" {
		return nil, ErrNoAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.key)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media %s: %w", redact(uri), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch media: %w", decodeAPIError(resp))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("fetch media: %w", ErrEmptyResponse)
	}
	return b, nil
}
