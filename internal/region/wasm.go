package region

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/netkeep80/persistmem/internal/pmerr"
)

// wasmPageSize is the fixed WASM linear-memory page size (64 KiB).
const wasmPageSize = 65536

// WASMRegion backs a heap.Manager with the linear memory of a
// standalone wazero module instance. Instead of loading a guest-supplied
// module, it synthesizes the smallest module that declares and exports
// enough memory pages to hold the requested region, since persistmem
// only needs the address space, never guest code.
type WASMRegion struct {
	runtime  wazero.Runtime
	module   api.Module
	mem      api.Memory
	ctx      context.Context
	byteSize uint32
}

// OpenWASMRegion allocates a fresh WASM linear-memory-backed region of
// at least sizeBytes, rounded up to a whole number of 64 KiB pages.
func OpenWASMRegion(ctx context.Context, sizeBytes uint32) (*WASMRegion, error) {
	if sizeBytes == 0 {
		return nil, pmerr.ErrInvalidRegion
	}
	pages := (sizeBytes + wasmPageSize - 1) / wasmPageSize

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(pages))

	compiled, err := rt.CompileModule(ctx, memoryOnlyModule(pages))
	if err != nil {
		rt.Close(ctx)
		return nil, pmerr.ErrIO
	}

	instance, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("persistmem-region"))
	if err != nil {
		rt.Close(ctx)
		return nil, pmerr.ErrIO
	}

	mem := instance.Memory()
	if mem == nil {
		rt.Close(ctx)
		return nil, pmerr.ErrInvalidRegion
	}

	return &WASMRegion{runtime: rt, module: instance, mem: mem, ctx: ctx, byteSize: pages * wasmPageSize}, nil
}

// Bytes returns the slice view wazero's Memory.Read hands back over the
// instance's linear memory; writes through it land directly in guest
// memory, exactly as a WASM host function's byte-slice view would.
func (r *WASMRegion) Bytes() []byte {
	buf, ok := r.mem.Read(0, r.byteSize)
	if !ok {
		return nil
	}
	return buf
}

// Close tears down the module instance and its wazero runtime. A
// WASMRegion has no independent file to persist; callers that need
// durability should encode and write Bytes() to a FileRegion
// themselves before calling Close.
func (r *WASMRegion) Close() error {
	if err := r.module.Close(r.ctx); err != nil {
		return pmerr.ErrIO
	}
	if err := r.runtime.Close(r.ctx); err != nil {
		return pmerr.ErrIO
	}
	return nil
}

// memoryOnlyModule hand-assembles the smallest valid WASM binary that
// declares a memory of exactly pages (min == max) and exports it under
// the name "memory", the minimum wazero's InstantiateModule needs to
// hand back a usable api.Memory without any guest code.
func memoryOnlyModule(pages uint32) []byte {
	memSection := []byte{}
	memSection = appendULEB128(memSection, 1) // one memory
	memSection = append(memSection, 0x01)     // limits: has max
	memSection = appendULEB128(memSection, uint64(pages))
	memSection = appendULEB128(memSection, uint64(pages))

	exportName := []byte("memory")
	exportSection := []byte{}
	exportSection = appendULEB128(exportSection, 1) // one export
	exportSection = appendULEB128(exportSection, uint64(len(exportName)))
	exportSection = append(exportSection, exportName...)
	exportSection = append(exportSection, 0x02) // kind: memory
	exportSection = appendULEB128(exportSection, 0)

	var out []byte
	out = append(out, 0x00, 0x61, 0x73, 0x6D) // magic "\0asm"
	out = append(out, 0x01, 0x00, 0x00, 0x00) // version 1

	out = append(out, 0x05) // section id: memory
	out = appendULEB128(out, uint64(len(memSection)))
	out = append(out, memSection...)

	out = append(out, 0x07) // section id: export
	out = appendULEB128(out, uint64(len(exportSection)))
	out = append(out, exportSection...)

	return out
}

func appendULEB128(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}
