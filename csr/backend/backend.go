// Copyright 2021 The Wavious Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package backend provides csr.Backend implementations and
// self-registers them with periph.io/x/conn/v3/driver/driverreg, the
// way periph-host's ftdi and gpioioctl packages self-register their
// own drivers in an init() function.
package backend

import (
	"sync"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
)

// Map is a simple, race-free in-memory register backend; the
// Simulated (hosted test) backend is built on it.
type Map struct {
	mu   sync.Mutex
	data map[csr.Addr]uint32
}

// NewMap returns an empty register Map.
func NewMap() *Map {
	return &Map{data: make(map[csr.Addr]uint32)}
}

func (m *Map) Read(addr csr.Addr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[addr]
}

func (m *Map) Write(addr csr.Addr, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[addr] = value
}

var _ csr.Backend = (*Map)(nil)
