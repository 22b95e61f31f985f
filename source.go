package main

import "sync/atomic"

// ByteSource hands the poll loop raw MIDI bytes in arrival order without
// blocking. Drops reports how many bytes were discarded because the queue
// was full; the stream has no flow control, so under load bytes are lost
// rather than delivered late.
type ByteSource interface {
	TryByte() (byte, bool)
	Drops() uint64
}

// byteQueue funnels bytes from the input goroutines (serial reader, MIDI
// listener) to the poll loop. Pushes never block: a full queue drops the
// byte and counts it. The decoder recovers from the resulting gap at the
// next status byte.
type byteQueue struct {
	ch    chan byte
	drops atomic.Uint64
}

func newByteQueue(size int) *byteQueue {
	return &byteQueue{ch: make(chan byte, size)}
}

// Push queues one byte, dropping it if the queue is full.
func (q *byteQueue) Push(b byte) {
	select {
	case q.ch <- b:
	default:
		q.drops.Add(1)
	}
}

// PushAll queues a block of bytes in order.
func (q *byteQueue) PushAll(bs []byte) {
	for _, b := range bs {
		q.Push(b)
	}
}

// TryByte returns the next queued byte without blocking.
func (q *byteQueue) TryByte() (byte, bool) {
	select {
	case b := <-q.ch:
		return b, true
	default:
		return 0, false
	}
}

func (q *byteQueue) Drops() uint64 {
	return q.drops.Load()
}
