// Package worker implements the lifecycle of a single isolated worker: the
// event and handle types shared with the host, and the launcher that spawns
// the worker's dedicated thread.
//
// A worker runs on its own OS-locked goroutine driving a private execution
// environment. The host communicates with it only through the Handle's
// channels: messages flow in, events flow out, and Terminate signals the
// run loop to stop at its next step boundary.
//
// The execution environment itself is a collaborator consumed behind the
// Environment and EnvironmentFactory interfaces; the engine package
// provides the wazero-backed implementation.
package worker
