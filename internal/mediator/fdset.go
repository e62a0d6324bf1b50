package mediator

import "golang.org/x/sys/unix"

// fdSet wraps unix.FdSet with bit-twiddling helpers; unix.FdSet itself is a
// bare struct with no methods, since its Bits layout is platform specific.
type fdSet struct {
	set unix.FdSet
}

func (s *fdSet) zero() {
	for i := range s.set.Bits {
		s.set.Bits[i] = 0
	}
}

func (s *fdSet) add(fd int) {
	s.set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func (s *fdSet) isSet(fd int) bool {
	return s.set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
