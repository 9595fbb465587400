// Package limits holds system-wide resource limits consulted by the
// file and VM subsystems.
package limits

import "unsafe"
import "sync/atomic"

/// OPEN_MAX bounds the number of descriptors a single process may hold
/// open at once.
const OPEN_MAX = 128

/// Lhits counts limit hits, for diagnostics.
var Lhits int

/// Sysatomic_t is a numeric limit that can be atomically taken from and
/// given back to, without ever going negative.
type Sysatomic_t int64

/// Syslimit_t tracks system wide resource limits for the subsystems this
/// core implements.
type Syslimit_t struct {
	// total OpenFile_t objects the shared registry will hold across every
	// process; bounds ENFILE.
	Openfiles Sysatomic_t
	// total physical frames the VM subsystem's allocator may hand out;
	// bounds ENOMEM in vm/mem paths.
	Frames Sysatomic_t
}

/// Syslimit describes the configured system wide limits.
var Syslimit *Syslimit_t = MkSysLimit()

/// MkSysLimit returns a pointer to the default set of limits.
func MkSysLimit() *Syslimit_t {
	return &Syslimit_t{
		Openfiles: 100000,
		Frames:    1 << 12,
	}
}

func (s *Sysatomic_t) _aptr() *int64 {
	return (*int64)(unsafe.Pointer(s))
}

/// Given increases the limit by the provided amount.
func (s *Sysatomic_t) Given(_n uint) {
	n := int64(_n)
	if n < 0 {
		panic("too mighty")
	}
	atomic.AddInt64(s._aptr(), n)
}

/// Taken tries to decrement the limit by the provided amount.
/// It returns true on success.
func (s *Sysatomic_t) Taken(_n uint) bool {
	n := int64(_n)
	if n < 0 {
		panic("too mighty")
	}
	g := atomic.AddInt64(s._aptr(), -n)
	if g >= 0 {
		return true
	}
	atomic.AddInt64(s._aptr(), n)
	Lhits++
	return false
}

/// Take decrements the limit and reports whether it succeeded.
func (s *Sysatomic_t) Take() bool {
	return s.Taken(1)
}

/// Give increments the limit by one.
func (s *Sysatomic_t) Give() {
	s.Given(1)
}
