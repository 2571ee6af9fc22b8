// Package engine provides the wazero-backed execution environment for
// workers.
//
// Each worker gets a fresh wazero runtime: guests share nothing with each
// other or with the host beyond the message channels. The guest-facing ABI
// is deliberately small: byte payloads over core WASM exports.
//
// Guest imports (module "host"):
//
//	post_message(ptr, len i32)             send a payload to the host
//	report_error(ptr, len, line, col i32)  surface a recoverable error
//
// Guest exports:
//
//	memory                   linear memory for payload transfer
//	alloc(size i32) -> i32   scratch allocator for inbound payloads
//	on_message(ptr, len i32) inbound message entry point (optional)
//
// Initial evaluation is module instantiation, which runs the WASI _start
// function when present. A worker whose module exports no on_message
// completes naturally once evaluation ends.
package engine
