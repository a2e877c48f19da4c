package wasm

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/vm"
)

func export(b wazero.HostModuleBuilder, name string, fn any) {
	b.NewFunctionBuilder().WithFunc(fn).Export(name)
}

// exportUnsupported binds name with the given signature to a function that
// fails with "name is not implemented".
func exportUnsupported(b wazero.HostModuleBuilder, name string, params, results []api.ValueType) {
	b.NewFunctionBuilder().
		WithGoFunction(api.GoFunc(func(ctx context.Context, _ []uint64) {
			panic(hostOf(ctx).NotImplemented(name))
		}), params, results).
		Export(name)
}

// instantiateEnv builds the env module with every intrinsic.
func instantiateEnv(ctx context.Context, r wazero.Runtime) error {
	b := r.NewHostModuleBuilder("env")
	exportAction(b)
	exportDB(b)
	exportIndex(b, "idx64", indexFuncs[uint64]{pick: func(h *vm.Host) *vm.IndexAPI[uint64] { return h.Idx64 }})
	exportIndex(b, "idx128", indexFuncs[uint256.Int]{pick: func(h *vm.Host) *vm.IndexAPI[uint256.Int] { return h.Idx128 }})
	exportIndex256(b, indexFuncs[[32]byte]{pick: func(h *vm.Host) *vm.IndexAPI[[32]byte] { return h.Idx256 }})
	exportIndex(b, "idx_double", indexFuncs[float64]{pick: func(h *vm.Host) *vm.IndexAPI[float64] { return h.IdxDouble }})
	exportCrypto(b)
	exportPrint(b)
	exportSystem(b)
	exportTransaction(b)
	exportBuiltins(b)
	exportUnsupportedIntrinsics(b)
	_, err := b.Instantiate(ctx)
	return err
}

func exportAction(b wazero.HostModuleBuilder) {
	export(b, "read_action_data", func(ctx context.Context, m api.Module, ptr, n uint32) int32 {
		return writeBounded(m, ptr, n, hostOf(ctx).ReadActionData())
	})
	export(b, "action_data_size", func(ctx context.Context) int32 {
		return int32(hostOf(ctx).ActionDataSize())
	})
	export(b, "require_auth", func(ctx context.Context, name uint64) {
		must(hostOf(ctx).RequireAuth(chain.Name(name)))
	})
	export(b, "has_auth", func(ctx context.Context, name uint64) int32 {
		return boolToI32(hostOf(ctx).HasAuth(chain.Name(name)))
	})
	export(b, "require_auth2", func(ctx context.Context, name, perm uint64) {
		must(hostOf(ctx).RequireAuth2(chain.Name(name), chain.Name(perm)))
	})
	export(b, "is_account", func(ctx context.Context, name uint64) int32 {
		return boolToI32(hostOf(ctx).IsAccount(chain.Name(name)))
	})
	export(b, "require_recipient", func(ctx context.Context, name uint64) {
		must(hostOf(ctx).RequireRecipient(chain.Name(name)))
	})
	export(b, "send_inline", func(ctx context.Context, m api.Module, ptr, n uint32) {
		must(hostOf(ctx).SendInline(read(m, ptr, n)))
	})
	export(b, "current_receiver", func(ctx context.Context) uint64 {
		return uint64(hostOf(ctx).CurrentReceiver())
	})
	export(b, "get_sender", func(ctx context.Context) uint64 {
		return uint64(hostOf(ctx).GetSender())
	})
}

func exportDB(b wazero.HostModuleBuilder) {
	export(b, "db_store_i64", func(ctx context.Context, m api.Module, scope, table, payer, id uint64, ptr, n uint32) int32 {
		it, err := hostOf(ctx).DBStoreI64(chain.Name(scope), chain.Name(table), chain.Name(payer), id, read(m, ptr, n))
		must(err)
		return int32(it)
	})
	export(b, "db_update_i64", func(ctx context.Context, m api.Module, it int32, payer uint64, ptr, n uint32) {
		must(hostOf(ctx).DBUpdateI64(int(it), chain.Name(payer), read(m, ptr, n)))
	})
	export(b, "db_remove_i64", func(ctx context.Context, it int32) {
		must(hostOf(ctx).DBRemoveI64(int(it)))
	})
	export(b, "db_get_i64", func(ctx context.Context, m api.Module, it int32, ptr, n uint32) int32 {
		return writeBounded(m, ptr, n, hostOf(ctx).DBGetI64(int(it)))
	})
	export(b, "db_next_i64", func(ctx context.Context, m api.Module, it int32, primary uint32) int32 {
		next, pk := hostOf(ctx).DBNextI64(int(it))
		if next >= 0 {
			writeUint64(m, primary, pk)
		}
		return int32(next)
	})
	export(b, "db_previous_i64", func(ctx context.Context, m api.Module, it int32, primary uint32) int32 {
		prev, pk, err := hostOf(ctx).DBPreviousI64(int(it))
		must(err)
		if prev >= 0 {
			writeUint64(m, primary, pk)
		}
		return int32(prev)
	})
	export(b, "db_find_i64", func(ctx context.Context, code, scope, table, id uint64) int32 {
		return int32(hostOf(ctx).DBFindI64(chain.Name(code), chain.Name(scope), chain.Name(table), id))
	})
	export(b, "db_lowerbound_i64", func(ctx context.Context, code, scope, table, id uint64) int32 {
		return int32(hostOf(ctx).DBLowerboundI64(chain.Name(code), chain.Name(scope), chain.Name(table), id))
	})
	export(b, "db_upperbound_i64", func(ctx context.Context, code, scope, table, id uint64) int32 {
		return int32(hostOf(ctx).DBUpperboundI64(chain.Name(code), chain.Name(scope), chain.Name(table), id))
	})
	export(b, "db_end_i64", func(ctx context.Context, code, scope, table uint64) int32 {
		return int32(hostOf(ctx).DBEndI64(chain.Name(code), chain.Name(scope), chain.Name(table)))
	})
}

func exportCrypto(b wazero.HostModuleBuilder) {
	hashes := []struct {
		name string
		size uint32
		sum  func(*vm.Host, []byte) []byte
		chk  func(*vm.Host, []byte, []byte) error
	}{
		{"sha1", 20, (*vm.Host).Sha1, (*vm.Host).AssertSha1},
		{"sha256", 32, (*vm.Host).Sha256, (*vm.Host).AssertSha256},
		{"sha512", 64, (*vm.Host).Sha512, (*vm.Host).AssertSha512},
		{"ripemd160", 20, (*vm.Host).Ripemd160, (*vm.Host).AssertRipemd160},
	}
	for _, hf := range hashes {
		export(b, hf.name, func(ctx context.Context, m api.Module, ptr, n, out uint32) {
			write(m, out, hf.sum(hostOf(ctx), read(m, ptr, n)))
		})
		export(b, "assert_"+hf.name, func(ctx context.Context, m api.Module, ptr, n, hash uint32) {
			must(hf.chk(hostOf(ctx), read(m, ptr, n), read(m, hash, hf.size)))
		})
	}

	export(b, "recover_key", func(ctx context.Context, m api.Module, digest, sig, sigLen, pub, pubLen uint32) int32 {
		key, err := hostOf(ctx).RecoverKey(read(m, digest, 32), read(m, sig, sigLen))
		must(err)
		size := min(int(pubLen), len(key))
		write(m, pub, key[:size])
		return int32(size)
	})
	export(b, "assert_recover_key", func(ctx context.Context, m api.Module, digest, sig, sigLen, pub, pubLen uint32) {
		must(hostOf(ctx).AssertRecoverKey(read(m, digest, 32), read(m, sig, sigLen), read(m, pub, pubLen)))
	})
}

func exportPrint(b wazero.HostModuleBuilder) {
	export(b, "prints", func(ctx context.Context, m api.Module, ptr uint32) {
		hostOf(ctx).Prints(readCString(m, ptr))
	})
	export(b, "prints_l", func(ctx context.Context, m api.Module, ptr, n uint32) {
		hostOf(ctx).Prints(string(read(m, ptr, n)))
	})
	export(b, "printi", func(ctx context.Context, v int64) {
		hostOf(ctx).PrintI(v)
	})
	export(b, "printui", func(ctx context.Context, v uint64) {
		hostOf(ctx).PrintUI(v)
	})
	export(b, "printi128", func(ctx context.Context, m api.Module, ptr uint32) {
		hostOf(ctx).PrintI128(readWords(m, ptr))
	})
	export(b, "printui128", func(ctx context.Context, m api.Module, ptr uint32) {
		hostOf(ctx).PrintUI128(readWords(m, ptr))
	})
	export(b, "printsf", func(ctx context.Context, v float32) {
		hostOf(ctx).PrintSF(v)
	})
	export(b, "printdf", func(ctx context.Context, v float64) {
		hostOf(ctx).PrintDF(v)
	})
	export(b, "printqf", func(ctx context.Context, m api.Module, ptr uint32) {
		hostOf(ctx).PrintQF(readWords(m, ptr))
	})
	export(b, "printn", func(ctx context.Context, v uint64) {
		hostOf(ctx).PrintN(chain.Name(v))
	})
	export(b, "printhex", func(ctx context.Context, m api.Module, ptr, n uint32) {
		hostOf(ctx).PrintHex(read(m, ptr, n))
	})
}

func exportSystem(b wazero.HostModuleBuilder) {
	export(b, "eosio_assert", func(ctx context.Context, m api.Module, test, msg uint32) {
		if test == 0 {
			must(hostOf(ctx).EosioAssert(false, readCString(m, msg)))
		}
	})
	export(b, "eosio_assert_message", func(ctx context.Context, m api.Module, test, msg, n uint32) {
		if test == 0 {
			must(hostOf(ctx).EosioAssertMessage(false, string(read(m, msg, n))))
		}
	})
	export(b, "eosio_assert_code", func(ctx context.Context, test uint32, code uint64) {
		must(hostOf(ctx).EosioAssertCode(test != 0, code))
	})
	export(b, "eosio_exit", func(ctx context.Context, code int32) {
		panic(hostOf(ctx).EosioExit(code))
	})
	export(b, "current_time", func(ctx context.Context) int64 {
		return hostOf(ctx).CurrentTime()
	})
	export(b, "get_account_creation_time", func(ctx context.Context, name uint64) int64 {
		t, err := hostOf(ctx).GetAccountCreationTime(chain.Name(name))
		must(err)
		return t
	})
	export(b, "get_active_producers", func(ctx context.Context, m api.Module, ptr, n uint32) int32 {
		producers := hostOf(ctx).GetActiveProducers()
		e := chain.NewEncoder()
		for _, p := range producers {
			e.Name(p)
		}
		return writeBounded(m, ptr, n, e.Bytes())
	})

	// Privileged calls are accepted and ignored.
	export(b, "set_proposed_producers", func(context.Context, uint32, uint32) int64 { return 0 })
	export(b, "set_blockchain_parameters_packed", func(context.Context, uint32, uint32) {})
	export(b, "get_blockchain_parameters_packed", func(context.Context, uint32, uint32) int32 { return 0 })
}

func exportTransaction(b wazero.HostModuleBuilder) {
	export(b, "read_transaction", func(ctx context.Context, m api.Module, ptr, n uint32) int32 {
		return writeBounded(m, ptr, n, hostOf(ctx).ReadTransaction())
	})
	export(b, "transaction_size", func(ctx context.Context) int32 {
		return int32(hostOf(ctx).TransactionSize())
	})
	export(b, "tapos_block_num", func(ctx context.Context) int32 {
		return int32(hostOf(ctx).TaposBlockNum())
	})
	export(b, "tapos_block_prefix", func(ctx context.Context) int32 {
		return int32(hostOf(ctx).TaposBlockPrefix())
	})
	export(b, "expiration", func(ctx context.Context) int32 {
		return int32(hostOf(ctx).Expiration())
	})
	export(b, "get_action", func(ctx context.Context, m api.Module, kind, index, ptr, n uint32) int32 {
		packed, found, err := hostOf(ctx).GetAction(kind, index)
		must(err)
		if !found {
			return -1
		}
		if len(packed) <= int(n) {
			write(m, ptr, packed)
		}
		return int32(len(packed))
	})
}

func exportBuiltins(b wazero.HostModuleBuilder) {
	export(b, "abort", func(ctx context.Context) {
		must(hostOf(ctx).Abort())
	})
	export(b, "memcpy", func(ctx context.Context, m api.Module, dst, src, n uint32) uint32 {
		copyWithin(m, dst, src, n)
		return dst
	})
	export(b, "memmove", func(ctx context.Context, m api.Module, dst, src, n uint32) uint32 {
		copyWithin(m, dst, src, n)
		return dst
	})
	export(b, "memset", func(ctx context.Context, m api.Module, dst, c, n uint32) uint32 {
		fill(m, dst, byte(c), n)
		return dst
	})

	arith := map[string]func(la, ha, lb, hb uint64) (uint64, uint64, error){
		"__divti3":  vm.Divti3,
		"__udivti3": vm.Udivti3,
		"__modti3":  vm.Modti3,
		"__umodti3": vm.Umodti3,
		"__multi3":  vm.Multi3,
	}
	for name, op := range arith {
		export(b, name, func(ctx context.Context, m api.Module, ret uint32, la, ha, lb, hb uint64) {
			lo, hi, err := op(la, ha, lb, hb)
			must(err)
			writeWords(m, ret, lo, hi)
		})
	}
	shifts := map[string]func(lo, hi uint64, shift uint32) (uint64, uint64){
		"__ashlti3": vm.Ashlti3,
		"__ashrti3": vm.Ashrti3,
		"__lshlti3": vm.Ashlti3,
		"__lshrti3": vm.Lshrti3,
	}
	for name, op := range shifts {
		export(b, name, func(ctx context.Context, m api.Module, ret uint32, lo, hi uint64, shift uint32) {
			rlo, rhi := op(lo, hi, shift)
			writeWords(m, ret, rlo, rhi)
		})
	}
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f32 = api.ValueTypeF32
	f64 = api.ValueTypeF64
)

func sig(types ...api.ValueType) []api.ValueType {
	return types
}

// unsupportedSignatures gives the import signature of every intrinsic
// that is bound but fails when called.
var unsupportedSignatures = map[string][2][]api.ValueType{
	"send_deferred":                   {sig(i32, i64, i32, i32, i32), nil},
	"cancel_deferred":                 {sig(i32), sig(i32)},
	"publication_time":                {nil, sig(i64)},
	"send_context_free_inline":        {sig(i32, i32), nil},
	"set_action_return_value":         {sig(i32, i32), nil},
	"check_transaction_authorization": {sig(i32, i32, i32, i32, i32, i32), sig(i32)},
	"check_permission_authorization":  {sig(i64, i64, i32, i32, i32, i32, i64), sig(i32)},
	"get_permission_last_used":        {sig(i64, i64), sig(i64)},
	"get_context_free_data":           {sig(i32, i32, i32), sig(i32)},
	"is_feature_activated":            {sig(i32), sig(i32)},

	"__addtf3":      {sig(i32, i64, i64, i64, i64), nil},
	"__subtf3":      {sig(i32, i64, i64, i64, i64), nil},
	"__multf3":      {sig(i32, i64, i64, i64, i64), nil},
	"__divtf3":      {sig(i32, i64, i64, i64, i64), nil},
	"__negtf2":      {sig(i32, i64, i64), nil},
	"__extendsftf2": {sig(i32, f32), nil},
	"__extenddftf2": {sig(i32, f64), nil},
	"__trunctfdf2":  {sig(i64, i64), sig(f64)},
	"__trunctfsf2":  {sig(i64, i64), sig(f32)},
	"__fixtfsi":     {sig(i64, i64), sig(i32)},
	"__fixtfdi":     {sig(i64, i64), sig(i64)},
	"__fixtfti":     {sig(i32, i64, i64), nil},
	"__fixunstfsi":  {sig(i64, i64), sig(i32)},
	"__fixunstfdi":  {sig(i64, i64), sig(i64)},
	"__fixunstfti":  {sig(i32, i64, i64), nil},
	"__fixsfti":     {sig(i32, f32), nil},
	"__fixdfti":     {sig(i32, f64), nil},
	"__fixunssfti":  {sig(i32, f32), nil},
	"__fixunsdfti":  {sig(i32, f64), nil},
	"__floatsitf":   {sig(i32, i32), nil},
	"__floatditf":   {sig(i32, i64), nil},
	"__floatunsitf": {sig(i32, i32), nil},
	"__floatunditf": {sig(i32, i64), nil},
	"__floattidf":   {sig(i64, i64), sig(f64)},
	"__floatuntidf": {sig(i64, i64), sig(f64)},
	"__floatsidf":   {sig(i32), sig(f64)},
	"__eqtf2":       {sig(i64, i64, i64, i64), sig(i32)},
	"__netf2":       {sig(i64, i64, i64, i64), sig(i32)},
	"__getf2":       {sig(i64, i64, i64, i64), sig(i32)},
	"__gttf2":       {sig(i64, i64, i64, i64), sig(i32)},
	"__letf2":       {sig(i64, i64, i64, i64), sig(i32)},
	"__lttf2":       {sig(i64, i64, i64, i64), sig(i32)},
	"__cmptf2":      {sig(i64, i64, i64, i64), sig(i32)},
	"__unordtf2":    {sig(i64, i64, i64, i64), sig(i32)},
}

func exportUnsupportedIntrinsics(b wazero.HostModuleBuilder) {
	for _, name := range vm.Unsupported {
		s := unsupportedSignatures[name]
		exportUnsupported(b, name, s[0], s[1])
	}
	for _, name := range vm.UnsupportedBuiltins {
		s := unsupportedSignatures[name]
		exportUnsupported(b, name, s[0], s[1])
	}
}
