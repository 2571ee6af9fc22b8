// Package host owns the session-side view of workers: the table mapping
// worker ids to (thread, handle) pairs, the four operations exposed to the
// surrounding system (create, terminate, post, get), and the serializer
// that turns worker events into their outward shape.
package host
