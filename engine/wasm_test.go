package engine

// Hand-assembled core WASM modules used as guest fixtures. Layouts follow
// the binary format directly; section comments give the WAT equivalent.

// emptyModule is a valid module with no sections: instantiation succeeds
// and the worker completes naturally.
func emptyModule() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// echoModule posts every inbound payload straight back to the host:
//
//	(module
//	  (import "host" "post_message" (func $post (param i32 i32)))
//	  (memory (export "memory") 1)
//	  (func (export "on_message") (param i32 i32)
//	    local.get 0 local.get 1 call $post)
//	  (func (export "alloc") (param i32) (result i32) i32.const 1024))
func echoModule() []byte {
	return []byte{
		// magic + version
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type section: (i32,i32)->(), (i32)->(i32)
		0x01, 0x0b, 0x02,
		0x60, 0x02, 0x7f, 0x7f, 0x00,
		0x60, 0x01, 0x7f, 0x01, 0x7f,
		// import section: func host.post_message (type 0)
		0x02, 0x15, 0x01,
		0x04, 'h', 'o', 's', 't',
		0x0c, 'p', 'o', 's', 't', '_', 'm', 'e', 's', 's', 'a', 'g', 'e',
		0x00, 0x00,
		// function section: on_message (type 0), alloc (type 1)
		0x03, 0x03, 0x02, 0x00, 0x01,
		// memory section: 1 page min
		0x05, 0x03, 0x01, 0x00, 0x01,
		// export section: memory, alloc (func 2), on_message (func 1)
		0x07, 0x1f, 0x03,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x05, 'a', 'l', 'l', 'o', 'c', 0x00, 0x02,
		0x0a, 'o', 'n', '_', 'm', 'e', 's', 's', 'a', 'g', 'e', 0x00, 0x01,
		// code section
		0x0a, 0x10, 0x02,
		// on_message: local.get 0; local.get 1; call 0; end
		0x08, 0x00, 0x20, 0x00, 0x20, 0x01, 0x10, 0x00, 0x0b,
		// alloc: i32.const 1024; end
		0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	}
}

// errorModule reports every inbound payload as a recoverable script error
// at line 7, column 3:
//
//	(module
//	  (import "host" "report_error" (func $err (param i32 i32 i32 i32)))
//	  (memory (export "memory") 1)
//	  (func (export "on_message") (param i32 i32)
//	    local.get 0 local.get 1 i32.const 7 i32.const 3 call $err)
//	  (func (export "alloc") (param i32) (result i32) i32.const 1024))
func errorModule() []byte {
	return []byte{
		// magic + version
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type section: (i32 x4)->(), (i32,i32)->(), (i32)->(i32)
		0x01, 0x12, 0x03,
		0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x00,
		0x60, 0x02, 0x7f, 0x7f, 0x00,
		0x60, 0x01, 0x7f, 0x01, 0x7f,
		// import section: func host.report_error (type 0)
		0x02, 0x15, 0x01,
		0x04, 'h', 'o', 's', 't',
		0x0c, 'r', 'e', 'p', 'o', 'r', 't', '_', 'e', 'r', 'r', 'o', 'r',
		0x00, 0x00,
		// function section: on_message (type 1), alloc (type 2)
		0x03, 0x03, 0x02, 0x01, 0x02,
		// memory section: 1 page min
		0x05, 0x03, 0x01, 0x00, 0x01,
		// export section: memory, alloc (func 2), on_message (func 1)
		0x07, 0x1f, 0x03,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x05, 'a', 'l', 'l', 'o', 'c', 0x00, 0x02,
		0x0a, 'o', 'n', '_', 'm', 'e', 's', 's', 'a', 'g', 'e', 0x00, 0x01,
		// code section
		0x0a, 0x14, 0x02,
		// on_message: local.get 0; local.get 1; i32.const 7; i32.const 3; call 0; end
		0x0c, 0x00, 0x20, 0x00, 0x20, 0x01, 0x41, 0x07, 0x41, 0x03, 0x10, 0x00, 0x0b,
		// alloc: i32.const 1024; end
		0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	}
}

// idleModule accepts messages and ignores them; it only ever waits in the
// worker's run loop:
//
//	(module
//	  (memory (export "memory") 1)
//	  (func (export "on_message") (param i32 i32))
//	  (func (export "alloc") (param i32) (result i32) i32.const 1024))
func idleModule() []byte {
	return []byte{
		// magic + version
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type section: (i32,i32)->(), (i32)->(i32)
		0x01, 0x0b, 0x02,
		0x60, 0x02, 0x7f, 0x7f, 0x00,
		0x60, 0x01, 0x7f, 0x01, 0x7f,
		// function section: on_message (type 0), alloc (type 1)
		0x03, 0x03, 0x02, 0x00, 0x01,
		// memory section: 1 page min
		0x05, 0x03, 0x01, 0x00, 0x01,
		// export section: memory, alloc (func 1), on_message (func 0)
		0x07, 0x1f, 0x03,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x05, 'a', 'l', 'l', 'o', 'c', 0x00, 0x01,
		0x0a, 'o', 'n', '_', 'm', 'e', 's', 's', 'a', 'g', 'e', 0x00, 0x00,
		// code section
		0x0a, 0x0a, 0x02,
		// on_message: end
		0x02, 0x00, 0x0b,
		// alloc: i32.const 1024; end
		0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	}
}
