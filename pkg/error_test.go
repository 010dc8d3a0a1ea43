package pkg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStatus(t *testing.T) {
	tests := []struct {
		status  TransferStatus
		name    string
		wantErr error
	}{
		{TransferStatusSuccess, "success", nil},
		{TransferStatusActive, "active", ErrWouldBlock},
		{TransferStatusHalted, "halted", ErrHalted},
		{TransferStatusDataBuffer, "data-buffer-error", ErrDataBuffer},
		{TransferStatusTransaction, "transaction-error", ErrTransaction},
		{TransferStatus(42), "unknown", ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.wantErr, tt.status.Error())
		})
	}
}

func TestErrorsWrap(t *testing.T) {
	err := fmt.Errorf("alloc ep 0x81: %w", ErrEndpointOverflow)
	assert.True(t, errors.Is(err, ErrEndpointOverflow))
	assert.False(t, errors.Is(err, ErrEndpointMemoryOverflow))
}
