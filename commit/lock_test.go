package commit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hughsie/zif"
)

func TestAcquireWriteLockImmediate(t *testing.T) {
	prefix := t.TempDir()
	unlock, err := acquireWriteLock(context.Background(), prefix, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("acquireWriteLock: %v", err)
	}
	if _, err := os.Stat(lockPath(prefix)); err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := os.Stat(lockPath(prefix)); !os.IsNotExist(err) {
		t.Fatalf("expected lock file to be removed, stat err = %v", err)
	}
}

func TestAcquireWriteLockRetriesThenSucceeds(t *testing.T) {
	prefix := t.TempDir()
	path := lockPath(prefix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Close()
		os.Remove(path)
		close(done)
	}()

	unlock, err := acquireWriteLock(context.Background(), prefix, 20, 5*time.Millisecond)
	<-done
	if err != nil {
		t.Fatalf("acquireWriteLock: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}

func TestAcquireWriteLockExhaustsRetries(t *testing.T) {
	prefix := t.TempDir()
	path := lockPath(prefix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	defer os.Remove(path)

	_, err = acquireWriteLock(context.Background(), prefix, 2, time.Millisecond)
	if err == nil {
		t.Fatal("expected acquireWriteLock to fail once retries are exhausted")
	}
	var zerr *zif.Error
	if !errors.As(err, &zerr) {
		t.Fatalf("error %v is not a *zif.Error", err)
	}
	if zerr.Kind != zif.ErrAlreadyLocked {
		t.Errorf("error kind = %v, want %v", zerr.Kind, zif.ErrAlreadyLocked)
	}
}

func TestAcquireWriteLockContextCancelled(t *testing.T) {
	prefix := t.TempDir()
	path := lockPath(prefix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	defer os.Remove(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = acquireWriteLock(ctx, prefix, 5, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected acquireWriteLock to fail when context is already cancelled")
	}
}

