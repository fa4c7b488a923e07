package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegistryRunsEnabledWorkers(t *testing.T) {
	r := NewRegistry(nil)
	var started, disabled atomic.Int32

	blocking := Func{WorkerName: "blocking", Fn: func(ctx context.Context) error {
		started.Add(1)
		<-ctx.Done()
		return ctx.Err()
	}}
	off := Func{WorkerName: "off", Fn: func(ctx context.Context) error {
		disabled.Add(1)
		return nil
	}}
	if err := r.Register(blocking, Config{Enabled: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(off, Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(blocking, Config{Enabled: true}); err == nil {
		t.Error("expected error registering a duplicate name")
	}

	r.Start(context.Background())
	waitFor(t, func() bool { return started.Load() == 1 })

	infos := r.List()
	if len(infos) != 2 || infos[0].Name != "blocking" || !infos[0].Running || infos[1].Running {
		t.Errorf("unexpected infos %+v", infos)
	}

	r.Stop()
	if disabled.Load() != 0 {
		t.Error("disabled worker must not run")
	}
	if r.List()[0].Running {
		t.Error("worker should be stopped")
	}
}

func TestRegistryRestartsFailedWorker(t *testing.T) {
	r := NewRegistry(nil)
	var runs atomic.Int32

	flaky := Func{WorkerName: "flaky", Fn: func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("connection lost")
		}
		<-ctx.Done()
		return ctx.Err()
	}}
	if err := r.Register(flaky, Config{Enabled: true, RestartDelay: time.Millisecond}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Start(context.Background())
	defer r.Stop()
	waitFor(t, func() bool { return runs.Load() == 3 })

	info := r.List()[0]
	if info.Restarts != 2 || info.LastErr != "connection lost" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestRegistryWithoutRestart(t *testing.T) {
	r := NewRegistry(nil)
	once := Func{WorkerName: "once", Fn: func(ctx context.Context) error {
		return errors.New("boom")
	}}
	if err := r.Register(once, Config{Enabled: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Start(context.Background())
	waitFor(t, func() bool { return !r.List()[0].Running })
	r.Stop()

	if info := r.List()[0]; info.Restarts != 0 || info.LastErr != "boom" {
		t.Errorf("unexpected info %+v", info)
	}
}
