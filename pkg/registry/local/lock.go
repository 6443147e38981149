package localregistry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"golang.org/x/sys/unix"
)

const (
	LockFileName = ".lock"

	DefaultLockTimeout = 10 * time.Second
	lockPollInterval   = 25 * time.Millisecond
)

// fileLock is an exclusive flock(2) on the registry's lock file. It serializes
// writers across processes sharing the same root.
type fileLock struct {
	f *os.File
}

func acquireFileLock(ctx context.Context, path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &fileLock{f: f}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("%w: lock held by another process: %w", registry.ErrRegistryBusy, ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *fileLock) release() error {
	unlockErr := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	closeErr := l.f.Close()
	return errors.Join(unlockErr, closeErr)
}

// acquireSlot takes the in-process writer slot, giving up when ctx is done.
func acquireSlot(ctx context.Context, slot chan struct{}) (func(), error) {
	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: another writer is active: %w", registry.ErrRegistryBusy, ctx.Err())
	}
}
