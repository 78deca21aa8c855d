// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/recommend/storage"
)

var _ suture.Service = (*ReloadService)(nil)

type fakeLoader struct {
	calls  atomic.Int32
	err    error
	loaded chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{loaded: make(chan struct{}, 16)}
}

func (f *fakeLoader) Load(context.Context) (bool, error) {
	f.calls.Add(1)
	f.loaded <- struct{}{}
	return f.err == nil, f.err
}

type fakeSource struct {
	ch  chan events.ModelBuilt
	err error
}

func (f *fakeSource) Subscribe(context.Context) (<-chan events.ModelBuilt, error) {
	return f.ch, f.err
}

func waitLoads(t *testing.T, l *fakeLoader, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-l.loaded:
		case <-time.After(3 * time.Second):
			t.Fatalf("waited for %d loads, saw %d", n, i)
		}
	}
}

func runService(t *testing.T, svc *ReloadService) (cancel func()) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	return func() {
		cancelFn()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("Serve() did not stop")
		}
	}
}

func TestReloadService_LoadsOnStartup(t *testing.T) {
	loader := newFakeLoader()
	loader.err = fmt.Errorf("load: %w", storage.ErrModelNotFound)

	stop := runService(t, NewReloadService(loader, nil, ReloadServiceConfig{}))
	defer stop()

	waitLoads(t, loader, 1)
}

func TestReloadService_Polls(t *testing.T) {
	loader := newFakeLoader()
	svc := NewReloadService(loader, nil, ReloadServiceConfig{PollInterval: 20 * time.Millisecond})

	stop := runService(t, svc)
	defer stop()

	waitLoads(t, loader, 3)
}

func TestReloadService_ReloadsOnEvent(t *testing.T) {
	loader := newFakeLoader()
	source := &fakeSource{ch: make(chan events.ModelBuilt)}
	svc := NewReloadService(loader, source, ReloadServiceConfig{MinInterval: 10 * time.Millisecond})

	stop := runService(t, svc)
	defer stop()

	waitLoads(t, loader, 1)
	source.ch <- events.ModelBuilt{Name: "movie_recommender", Version: 2}
	waitLoads(t, loader, 1)

	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loads = %d, want 2", got)
	}
}

func TestReloadService_SubscribeFailureFallsBackToPolling(t *testing.T) {
	loader := newFakeLoader()
	source := &fakeSource{err: errors.New("nats: no servers available")}
	svc := NewReloadService(loader, source, ReloadServiceConfig{PollInterval: 20 * time.Millisecond})

	stop := runService(t, svc)
	defer stop()

	waitLoads(t, loader, 2)
}

func TestReloadService_ReloadThrottled(t *testing.T) {
	loader := newFakeLoader()
	svc := NewReloadService(loader, nil, ReloadServiceConfig{MinInterval: time.Hour})
	ctx := context.Background()

	changed, err := svc.Reload(ctx)
	if err != nil || !changed {
		t.Fatalf("first Reload() = %v, %v", changed, err)
	}
	if _, err := svc.Reload(ctx); !errors.Is(err, ErrReloadThrottled) {
		t.Errorf("second Reload() error = %v, want ErrReloadThrottled", err)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loads = %d, want 1", got)
	}
}

func TestReloadService_ReloadPropagatesError(t *testing.T) {
	loader := newFakeLoader()
	loader.err = errors.New("model artifact is corrupt")
	svc := NewReloadService(loader, nil, ReloadServiceConfig{})

	if _, err := svc.Reload(context.Background()); !errors.Is(err, loader.err) {
		t.Errorf("Reload() error = %v, want %v", err, loader.err)
	}
	if svc.String() != "model-reload" {
		t.Errorf("String() = %q", svc.String())
	}
}
