package registry

import (
	"errors"
	"fmt"
)

var (
	ErrIndexCorrupt     = errors.New("registry index is corrupt")
	ErrStorageWrite     = errors.New("failed to write artifact")
	ErrStorageRead      = errors.New("failed to read artifact")
	ErrVersionNotFound  = errors.New("version not found")
	ErrEmptyRegistry    = errors.New("no models have been registered yet")
	ErrVersionCollision = errors.New("version id collision")
	ErrRegistryBusy     = errors.New("registry is busy, retry later")
	ErrMetricNotPresent = errors.New("metric not present")
	ErrInvalidPolicy    = errors.New("invalid cleanup policy")
	ErrUnitMissing      = errors.New("storage unit missing")
)

// OpError records the registry operation and version an error happened on.
type OpError struct {
	Op        string
	VersionID string
	Err       error
}

func (e *OpError) Error() string {
	if e.VersionID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.VersionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WrapOp attaches operation context to err. A nil err stays nil.
func WrapOp(op, versionID string, err error) error {
	if err == nil {
		return nil
	}
	var existing *OpError
	if errors.As(err, &existing) && existing.Op == op {
		return err
	}
	return &OpError{Op: op, VersionID: versionID, Err: err}
}

// IsRetryable reports whether the caller may retry the operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRegistryBusy)
}

// IsNotFound reports whether err means the requested version does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVersionNotFound)
}
