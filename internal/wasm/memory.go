package wasm

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/roach88/chainsim/internal/vm"
)

func outOfBounds() *vm.RuntimeError {
	return &vm.RuntimeError{Code: vm.ErrCodeInvalidArgument, Message: "access violation: memory out of bounds"}
}

// must raises err inside a host function.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// read copies n bytes of contract memory starting at ptr.
func read(m api.Module, ptr, n uint32) []byte {
	if n == 0 {
		return []byte{}
	}
	b, ok := m.Memory().Read(ptr, n)
	if !ok {
		panic(outOfBounds())
	}
	return append([]byte(nil), b...)
}

// write copies b into contract memory at ptr.
func write(m api.Module, ptr uint32, b []byte) {
	if len(b) == 0 {
		return
	}
	if !m.Memory().Write(ptr, b) {
		panic(outOfBounds())
	}
}

// writeBounded copies as much of src as fits in a buffer of size n and
// returns the number of bytes copied. A zero n is a size query and
// returns len(src).
func writeBounded(m api.Module, ptr, n uint32, src []byte) int32 {
	if n == 0 {
		return int32(len(src))
	}
	size := min(int(n), len(src))
	write(m, ptr, src[:size])
	return int32(size)
}

func writeUint64(m api.Module, ptr uint32, v uint64) {
	if !m.Memory().WriteUint64Le(ptr, v) {
		panic(outOfBounds())
	}
}

func readUint64(m api.Module, ptr uint32) uint64 {
	v, ok := m.Memory().ReadUint64Le(ptr)
	if !ok {
		panic(outOfBounds())
	}
	return v
}

// readWords reads a 128-bit little-endian integer as (low, high).
func readWords(m api.Module, ptr uint32) (uint64, uint64) {
	return readUint64(m, ptr), readUint64(m, ptr+8)
}

func writeWords(m api.Module, ptr uint32, lo, hi uint64) {
	writeUint64(m, ptr, lo)
	writeUint64(m, ptr+8, hi)
}

// readCString reads a NUL-terminated string.
func readCString(m api.Module, ptr uint32) string {
	mem := m.Memory()
	size := mem.Size()
	if ptr >= size {
		panic(outOfBounds())
	}
	b, _ := mem.Read(ptr, size-ptr)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	panic(outOfBounds())
}

// copyWithin moves n bytes from src to dst; overlapping ranges are
// handled.
func copyWithin(m api.Module, dst, src, n uint32) {
	if n == 0 {
		return
	}
	mem := m.Memory()
	from, ok1 := mem.Read(src, n)
	to, ok2 := mem.Read(dst, n)
	if !ok1 || !ok2 {
		panic(outOfBounds())
	}
	copy(to, from)
}

func fill(m api.Module, dst uint32, c byte, n uint32) {
	if n == 0 {
		return
	}
	b, ok := m.Memory().Read(dst, n)
	if !ok {
		panic(outOfBounds())
	}
	for i := range b {
		b[i] = c
	}
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
