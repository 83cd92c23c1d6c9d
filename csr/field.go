// Copyright 2021 The Wavious Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package csr implements the register accessor (C1): typed
// read/modify/write access over a byte-addressable, memory-mapped PHY
// register region, plus the MSR (mode-set-register) banking contract
// that lets a logical register group be rebound to either shadow copy.
package csr

// Addr is an offset into a Region's byte-addressable span.
type Addr uint32

// Field names one bitfield of a 32-bit register: its register offset,
// bit shift, and mask (pre-shift). This replaces the C firmware's
// GET_REG_FIELD/UPDATE_REG_FIELD macro pairs with a typed accessor.
type Field struct {
	Addr  Addr
	Shift uint
	Mask  uint32
}

// NewField constructs a Field from an offset and an inclusive bit
// range [lowBit, highBit].
func NewField(addr Addr, lowBit, highBit uint) Field {
	width := highBit - lowBit + 1
	return Field{Addr: addr, Shift: lowBit, Mask: (uint32(1) << width) - 1}
}

// Get extracts the field's value out of a raw register word.
func (f Field) Get(raw uint32) uint32 {
	return (raw >> f.Shift) & f.Mask
}

// Set returns raw with the field replaced by value (value is masked
// to the field's width first, matching UPDATE_REG_FIELD's silent
// truncation of out-of-range values).
func (f Field) Set(raw uint32, value uint32) uint32 {
	raw &^= f.Mask << f.Shift
	raw |= (value & f.Mask) << f.Shift
	return raw
}

// Read reads this field through r.
func (f Field) Read(r *Region) uint32 {
	return f.Get(r.Read(f.Addr))
}

// Write read-modifies-writes this field through r, atomically with
// respect to r's other users (base spec §4.1).
func (f Field) Write(r *Region, value uint32) {
	r.Update(f.Addr, f.Mask, f.Shift, value)
}
