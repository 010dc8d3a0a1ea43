package pkg

import "errors"

// Bus and endpoint errors.
var (
	// ErrWouldBlock indicates the endpoint is busy; retry after the next poll.
	ErrWouldBlock = errors.New("operation would block")

	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrEndpointOverflow indicates no free endpoint slot for an allocation.
	ErrEndpointOverflow = errors.New("no free endpoint")

	// ErrEndpointMemoryOverflow indicates the endpoint buffer arena is exhausted.
	ErrEndpointMemoryOverflow = errors.New("endpoint memory exhausted")

	// ErrInvalidEndpoint indicates an invalid or unallocated endpoint address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidState indicates the bus is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid bus state")

	// ErrBufferOverflow indicates a transfer larger than the endpoint buffer.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrBufferTooSmall indicates the caller's buffer cannot hold the received data.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrAlreadyTaken indicates a peripheral instance already has an owner.
	ErrAlreadyTaken = errors.New("peripheral already taken")

	// ErrSetupTorn indicates the setup buffer kept changing while it was read.
	ErrSetupTorn = errors.New("setup packet torn")

	// ErrHalted indicates the transfer descriptor was halted by the controller.
	ErrHalted = errors.New("transfer halted")

	// ErrDataBuffer indicates a data buffer overrun or underrun in the controller.
	ErrDataBuffer = errors.New("data buffer error")

	// ErrTransaction indicates a transaction error (CRC, timeout, bad PID).
	ErrTransaction = errors.New("transaction error")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidConfig indicates an invalid driver configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// TransferStatus represents the completion status of a transfer descriptor.
type TransferStatus int

// Transfer status values.
const (
	TransferStatusSuccess     TransferStatus = iota // Transfer completed successfully
	TransferStatusActive                            // Still owned by the controller
	TransferStatusHalted                            // Halted by the controller
	TransferStatusDataBuffer                        // Data buffer error
	TransferStatusTransaction                       // Transaction error
)

// String returns a string representation of the transfer status.
func (s TransferStatus) String() string {
	switch s {
	case TransferStatusSuccess:
		return "success"
	case TransferStatusActive:
		return "active"
	case TransferStatusHalted:
		return "halted"
	case TransferStatusDataBuffer:
		return "data-buffer-error"
	case TransferStatusTransaction:
		return "transaction-error"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the transfer status.
func (s TransferStatus) Error() error {
	switch s {
	case TransferStatusSuccess:
		return nil
	case TransferStatusActive:
		return ErrWouldBlock
	case TransferStatusHalted:
		return ErrHalted
	case TransferStatusDataBuffer:
		return ErrDataBuffer
	case TransferStatusTransaction:
		return ErrTransaction
	default:
		return ErrInvalidState
	}
}
