// Copyright 2021 The Wavious Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pll implements the PLL/VCO driver and its state machine
// (C2): band/fine FLL calibration, VCO selection, and lock detection,
// exposing prep/switch transitions and lock/loss-of-lock callbacks
// consumed by the frequency-switch FSM (C5).
package pll

import "github.com/waviousllc/wav-lpddr-sw-sub000/wddr"

// VCOId names one of the PLL's three VCO instances.
type VCOId uint8

const (
	VCO0 VCOId = iota
	VCO1
	VCO2
	numVCOs
)

// UndefinedVCOId signals "no VCO selected", the port of UNDEFINED_VCO_ID.
const UndefinedVCOId VCOId = 0xFF

// FLLCalibration is one VCO's frequency-lock-loop calibration sweep
// parameters (base spec §4.2).
type FLLCalibration struct {
	BandStart          uint16
	FineStart          uint16
	LockCountThreshold uint16
	RefclkCount        uint16
	VCOCountTarget     uint16
}

// BandFine is a calibrated (band, fine) code pair, the sweep result
// stored per (freq_id, vco_id).
type BandFine struct {
	Band uint16
	Fine uint16
}

// vco is one physical VCO instance's live state.
type vco struct {
	id       VCOId
	freqID   wddr.PhyFrequencyId
	hasFreq  bool
	poweredUp bool
}

type calKey struct {
	freq wddr.PhyFrequencyId
	vco  VCOId
}

// CalibrateFunc performs the band/fine sweep for one VCO and reports
// the resulting code. The default implementation
// (defaultCalibrate) models a stub hardware backend that locks
// immediately at the sweep's starting point — the pluggable seam
// base spec §9 Open Question 3 calls for ("the core contract is
// whatever the wddr target implements, not the stub"); a real target
// wires in a function that drives the FLL-locked status bit.
type CalibrateFunc func(id VCOId, freqID wddr.PhyFrequencyId, cal FLLCalibration) (BandFine, bool)

func defaultCalibrate(_ VCOId, _ wddr.PhyFrequencyId, cal FLLCalibration) (BandFine, bool) {
	return BandFine{Band: cal.BandStart, Fine: cal.FineStart}, true
}
