package model

import (
	"errors"
	"testing"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		hint     string
	}{
		{"not found", registry.WrapOp("resolve", "v_1", registry.ErrVersionNotFound), registry.ErrVersionNotFound, "modelreg list"},
		{"empty", registry.WrapOp("resolve", "", registry.ErrEmptyRegistry), registry.ErrEmptyRegistry, "modelreg register"},
		{"busy", registry.WrapOp("cleanup", "", registry.ErrRegistryBusy), registry.ErrRegistryBusy, "lock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := explain(tt.err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.hint)
		})
	}

	other := errors.New("disk full")
	assert.Same(t, other, explain(other))
}
