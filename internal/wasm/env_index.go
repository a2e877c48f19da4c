package wasm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/vm"
)

// indexFuncs adapts one secondary index of the Host to linear memory.
// Keys are read from and written back to memory through the index codec.
type indexFuncs[K any] struct {
	pick func(*vm.Host) *vm.IndexAPI[K]
}

func (f indexFuncs[K]) api(ctx context.Context) *vm.IndexAPI[K] {
	return f.pick(hostOf(ctx))
}

func (f indexFuncs[K]) readKey(m api.Module, x *vm.IndexAPI[K], ptr uint32) K {
	c := x.Codec()
	return c.Decode(read(m, ptr, uint32(c.Size)))
}

func (f indexFuncs[K]) writeKey(m api.Module, x *vm.IndexAPI[K], ptr uint32, k K) {
	c := x.Codec()
	b := make([]byte, c.Size)
	c.Encode(b, k)
	write(m, ptr, b)
}

func (f indexFuncs[K]) store(ctx context.Context, m api.Module, scope, table, payer, id uint64, key uint32) int32 {
	x := f.api(ctx)
	it, err := x.Store(chain.Name(scope), chain.Name(table), chain.Name(payer), id, f.readKey(m, x, key))
	must(err)
	return int32(it)
}

func (f indexFuncs[K]) update(ctx context.Context, m api.Module, it int32, payer uint64, key uint32) {
	x := f.api(ctx)
	must(x.Update(int(it), chain.Name(payer), f.readKey(m, x, key)))
}

func (f indexFuncs[K]) findPrimary(ctx context.Context, m api.Module, code, scope, table uint64, key uint32, primary uint64) int32 {
	x := f.api(ctx)
	it, k := x.FindPrimary(chain.Name(code), chain.Name(scope), chain.Name(table), primary)
	if it >= 0 {
		f.writeKey(m, x, key, k)
	}
	return int32(it)
}

func (f indexFuncs[K]) findSecondary(ctx context.Context, m api.Module, code, scope, table uint64, key, primary uint32) int32 {
	x := f.api(ctx)
	it, pk := x.FindSecondary(chain.Name(code), chain.Name(scope), chain.Name(table), f.readKey(m, x, key))
	if it >= 0 {
		writeUint64(m, primary, pk)
	}
	return int32(it)
}

func (f indexFuncs[K]) bound(ctx context.Context, m api.Module, upper bool, code, scope, table uint64, key, primary uint32) int32 {
	x := f.api(ctx)
	search := x.LowerBound
	if upper {
		search = x.UpperBound
	}
	it, k, pk := search(chain.Name(code), chain.Name(scope), chain.Name(table), f.readKey(m, x, key))
	if it >= 0 {
		f.writeKey(m, x, key, k)
		writeUint64(m, primary, pk)
	}
	return int32(it)
}

func exportIndex[K any](b wazero.HostModuleBuilder, name string, f indexFuncs[K]) {
	prefix := "db_" + name + "_"
	export(b, prefix+"store", f.store)
	export(b, prefix+"update", f.update)
	export(b, prefix+"find_primary", f.findPrimary)
	export(b, prefix+"find_secondary", f.findSecondary)
	export(b, prefix+"lowerbound", func(ctx context.Context, m api.Module, code, scope, table uint64, key, primary uint32) int32 {
		return f.bound(ctx, m, false, code, scope, table, key, primary)
	})
	export(b, prefix+"upperbound", func(ctx context.Context, m api.Module, code, scope, table uint64, key, primary uint32) int32 {
		return f.bound(ctx, m, true, code, scope, table, key, primary)
	})
	exportIndexCommon(b, prefix, f)
}

// exportIndexCommon binds the calls that never touch a key.
func exportIndexCommon[K any](b wazero.HostModuleBuilder, prefix string, f indexFuncs[K]) {
	export(b, prefix+"remove", func(ctx context.Context, it int32) {
		must(f.api(ctx).Remove(int(it)))
	})
	export(b, prefix+"next", func(ctx context.Context, m api.Module, it int32, primary uint32) int32 {
		next, pk := f.api(ctx).Next(int(it))
		if next >= 0 {
			writeUint64(m, primary, pk)
		}
		return int32(next)
	})
	export(b, prefix+"previous", func(ctx context.Context, m api.Module, it int32, primary uint32) int32 {
		prev, pk, err := f.api(ctx).Previous(int(it))
		must(err)
		if prev >= 0 {
			writeUint64(m, primary, pk)
		}
		return int32(prev)
	})
	export(b, prefix+"end", func(ctx context.Context, code, scope, table uint64) int32 {
		return int32(f.api(ctx).End(chain.Name(code), chain.Name(scope), chain.Name(table)))
	})
}

// idx256Words is the key length of idx256 calls, counted in 128-bit words.
const idx256Words = 2

func checkIdx256Len(n uint32) {
	if n != idx256Words {
		panic(&vm.RuntimeError{
			Code:    vm.ErrCodeInvalidArgument,
			Message: fmt.Sprintf("invalid idx256 key length %d, expected %d", n, idx256Words),
		})
	}
}

// exportIndex256 binds idx256. Calls that take a key carry an extra
// length argument.
func exportIndex256(b wazero.HostModuleBuilder, f indexFuncs[[32]byte]) {
	const prefix = "db_idx256_"
	export(b, prefix+"store", func(ctx context.Context, m api.Module, scope, table, payer, id uint64, key, n uint32) int32 {
		checkIdx256Len(n)
		return f.store(ctx, m, scope, table, payer, id, key)
	})
	export(b, prefix+"update", func(ctx context.Context, m api.Module, it int32, payer uint64, key, n uint32) {
		checkIdx256Len(n)
		f.update(ctx, m, it, payer, key)
	})
	export(b, prefix+"find_primary", func(ctx context.Context, m api.Module, code, scope, table uint64, key, n uint32, primary uint64) int32 {
		checkIdx256Len(n)
		return f.findPrimary(ctx, m, code, scope, table, key, primary)
	})
	export(b, prefix+"find_secondary", func(ctx context.Context, m api.Module, code, scope, table uint64, key, n, primary uint32) int32 {
		checkIdx256Len(n)
		return f.findSecondary(ctx, m, code, scope, table, key, primary)
	})
	export(b, prefix+"lowerbound", func(ctx context.Context, m api.Module, code, scope, table uint64, key, n, primary uint32) int32 {
		checkIdx256Len(n)
		return f.bound(ctx, m, false, code, scope, table, key, primary)
	})
	export(b, prefix+"upperbound", func(ctx context.Context, m api.Module, code, scope, table uint64, key, n, primary uint32) int32 {
		checkIdx256Len(n)
		return f.bound(ctx, m, true, code, scope, table, key, primary)
	})
	exportIndexCommon(b, prefix, f)
}
