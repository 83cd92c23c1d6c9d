// Copyright 2021 The Wavious Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package wddr holds the data model shared by every PHY firmware
// subsystem: the frequency table, per-channel calibration state, the
// owning device handle, and the persisted image header.
package wddr

import "errors"

// Status is the tri-state result every public FSM entry point returns,
// mirroring the C firmware's wddr_return_t.
type Status int

const (
	StatusSuccess Status = iota
	StatusError
	StatusRetry
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Sentinel errors distinguishing the four error kinds from base spec §7.
// Transient illegality is represented by StatusRetry, not an error value,
// since the coordinator's retry queue needs to re-dispatch the event
// rather than fail it.
var (
	// ErrHardRejection: event out of range, unsupported, or violates a
	// one-shot precondition.
	ErrHardRejection = errors.New("wddr: hard rejection")
	// ErrRecoverableFault: watchdog expiry, unexpected loss of lock,
	// FSM reached its error sink. Requires explicit re-prep to clear.
	ErrRecoverableFault = errors.New("wddr: recoverable fault")
	// ErrIrrecoverableFault: heap exhaustion, stack overflow, assertion
	// failure. The caller should halt.
	ErrIrrecoverableFault = errors.New("wddr: irrecoverable fault")
)
