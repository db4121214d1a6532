/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package orchestrator runs the generative operations against the provider and
// applies their results to the workspace. Operations run as background tasks;
// each failure becomes one short user notice and leaves the graph untouched.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"canvasstudio/internal/genai"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/telemetry"
	"canvasstudio/internal/workspace"
)

// Operation names used in logs, notices, history and telemetry.
const (
	OpGenerateImage = "generate_image"
	OpEditImage     = "edit_image"
	OpGenerateVideo = "generate_video"
	OpSpeak         = "speak"
	OpAnalyzeImage  = "analyze_image"
	OpConverse      = "converse"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 120
	// MaxTasks bounds concurrently running background tasks.
	MaxTasks = 16
)

var (
	// ErrBusy means the same modal or node already has a task in flight.
	ErrBusy = errors.New("already working on it")
	// ErrInvalidInput is returned for inputs the UI should not have submitted.
	ErrInvalidInput = errors.New("invalid input")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("orchestrator closed")
)

// AudioSink plays decoded speech.
type AudioSink interface {
	Play(ctx context.Context, clip genai.Clip) error
}

// MediaStore materializes generated media as local files and records history.
// *storage.Cache implements it.
type MediaStore interface {
	Put(ctx context.Context, kind, mime string, data []byte) (storage.Entry, error)
	RecordGeneration(ctx context.Context, g storage.Generation) error
}

// Recorder receives usage events. *telemetry.Client implements it.
type Recorder interface {
	Event(name string, props map[string]any)
}

// Level of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notice is a short message for the user.
type Notice struct {
	Level   Level
	Op      string
	Message string
}

// Options wires an Orchestrator. Provider and Store are required.
type Options struct {
	Provider genai.Provider
	Store    *workspace.Store
	Media    MediaStore
	Audio    AudioSink
	Recorder Recorder

	// Notify receives user notices; it may be called from any goroutine.
	Notify func(Notice)
	// Changed is called when busy state or the transcript changes.
	Changed func()

	PollInterval    time.Duration
	MaxPollAttempts int
	// Sleep waits between polls; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator owns the background tasks of one UI session.
type Orchestrator struct {
	provider genai.Provider
	store    *workspace.Store
	media    MediaStore
	audio    AudioSink
	rec      Recorder
	notify   func(Notice)
	changed  func()

	pollInterval time.Duration
	maxPolls     int
	sleep        func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc
	g      errgroup.Group

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
	chat     []Message
	thinking bool

	log *slog.Logger
}

// New creates an orchestrator. Close cancels everything it started.
func New(opts Options) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		provider:     opts.Provider,
		store:        opts.Store,
		media:        opts.Media,
		audio:        opts.Audio,
		rec:          opts.Recorder,
		notify:       opts.Notify,
		changed:      opts.Changed,
		pollInterval: opts.PollInterval,
		maxPolls:     opts.MaxPollAttempts,
		sleep:        opts.Sleep,
		ctx:          ctx,
		cancel:       cancel,
		inflight:     make(map[string]struct{}),
		log:          applog.WithComponent("orchestrator"),
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}
	if o.maxPolls <= 0 {
		o.maxPolls = DefaultMaxPollAttempts
	}
	if o.sleep == nil {
		o.sleep = sleepCtx
	}
	if o.rec == nil {
		o.rec = telemetry.Default()
	}
	o.g.SetLimit(MaxTasks)
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Go runs fn in the background under key. A second task with the same key is
// refused with ErrBusy until the first returns. Records logged with fn's
// context carry the task key.
func (o *Orchestrator) Go(key string, fn func(ctx context.Context)) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if _, busy := o.inflight[key]; busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.inflight[key] = struct{}{}
	o.mu.Unlock()
	o.fireChanged()

	started := o.g.TryGo(func() error {
		defer o.done(key)
		fn(applog.ContextWith(o.ctx, slog.String("task", key)))
		return nil
	})
	if !started {
		o.done(key)
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) done(key string) {
	o.mu.Lock()
	delete(o.inflight, key)
	o.mu.Unlock()
	o.fireChanged()
}

// Pending reports whether a task with key is running.
func (o *Orchestrator) Pending(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inflight[key]
	return ok
}

// Wait blocks until every started task has returned.
func (o *Orchestrator) Wait() { _ = o.g.Wait() }

// Close cancels in-flight tasks and waits for them.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.Wait()
}

func (o *Orchestrator) fireChanged() {
	if o.changed != nil {
		o.changed()
	}
}

// Failure is an operation error carrying a short user-facing message. Error
// returns only the message; the provider error stays reachable via Unwrap.
type Failure struct {
	Op      string
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

// fail logs err in full, records it and turns it into a Failure. Cancellation
// is neither shown nor recorded.
func (o *Orchestrator) fail(ctx context.Context, op, prompt string, err error, attrs ...any) error {
	if errors.Is(err, context.Canceled) {
		o.log.DebugContext(ctx, "operation cancelled", append([]any{"op", op}, attrs...)...)
		return err
	}
	o.log.ErrorContext(ctx, "operation failed", append([]any{"op", op, "err", err}, attrs...)...)
	o.rec.Event(telemetry.GenerationFailed, map[string]any{"op": op})
	o.record(ctx, storage.Generation{Op: op, Prompt: prompt, Status: storage.StatusFailed, Error: err.Error()})
	f := &Failure{Op: op, Message: UserMessage(op, err), Err: err}
	o.notice(LevelError, op, f.Message)
	return f
}

func (o *Orchestrator) succeed(ctx context.Context, op, prompt, path string, attrs ...any) {
	o.log.InfoContext(ctx, "operation succeeded", append([]any{"op", op}, attrs...)...)
	o.rec.Event(telemetry.GenerationSucceeded, map[string]any{"op": op})
	o.record(ctx, storage.Generation{Op: op, Prompt: prompt, Status: storage.StatusSucceeded, Path: path})
}

func (o *Orchestrator) record(ctx context.Context, g storage.Generation) {
	if o.media == nil {
		return
	}
	if err := o.media.RecordGeneration(context.WithoutCancel(ctx), g); err != nil {
		o.log.WarnContext(ctx, "record generation failed", "op", g.Op, "err", err)
	}
}

func (o *Orchestrator) notice(l Level, op, msg string) {
	if o.notify != nil && msg != "" {
		o.notify(Notice{Level: l, Op: op, Message: msg})
	}
}

// UserMessage maps an operation error to the single message shown to the user.
func UserMessage(op string, err error) string {
	switch {
	case op == OpGenerateVideo && errors.Is(err, genai.ErrBillingRequired):
		return "Video generation needs a provider project with billing enabled. Enable billing for your API key's project and try again."
	case errors.Is(err, genai.ErrNoAPIKey):
		return "No API key is set. Add your key in the settings and try again."
	case errors.Is(err, genai.ErrOperationTimeout):
		return "The video took too long to generate. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	}
	switch op {
	case OpGenerateImage:
		return "Could not generate the image. Please try again."
	case OpEditImage:
		return "Could not edit the image. Please try again."
	case OpGenerateVideo:
		return "Could not generate the video. Please try again."
	case OpSpeak:
		return "Could not read the text aloud."
	case OpAnalyzeImage:
		return "Could not analyze the image. Please try again."
	case OpConverse:
		return "The assistant could not answer right now. Please try again."
	}
	return "Something went wrong. Please try again."
}
