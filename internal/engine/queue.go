package engine

// chunk is one unit of output accepted by the ingest port. Immutable
// once enqueued; consumed only by the scheduler's flush.
type chunk struct {
	seq  uint64
	data []byte
}

// writeQueue is the ordered, capacity-bounded buffer of pending output
// chunks. It is owned by exactly one engine and is only touched under
// the engine mutex, so it needs no locking of its own.
type writeQueue struct {
	chunks  []chunk
	nextSeq uint64
	maxLen  int

	droppedChunks uint64
	droppedBytes  uint64
}

func newWriteQueue(maxLen int) *writeQueue {
	return &writeQueue{maxLen: maxLen}
}

// push appends a chunk. The payload is copied so callers may reuse
// their buffer after DeliverOutput returns.
func (q *writeQueue) push(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	q.chunks = append(q.chunks, chunk{seq: q.nextSeq, data: buf})
	q.nextSeq++
}

// compact enforces the queue bound. When the length exceeds maxLen it
// discards the oldest ceil(maxLen/2) entries in a single step,
// preserving the relative order of the remainder. Amortizing the bound
// this way trades visible loss of old output for bounded memory.
func (q *writeQueue) compact() (droppedChunks, droppedBytes int) {
	if len(q.chunks) <= q.maxLen {
		return 0, 0
	}

	drop := (q.maxLen + 1) / 2
	if drop > len(q.chunks) {
		drop = len(q.chunks)
	}
	for _, c := range q.chunks[:drop] {
		droppedBytes += len(c.data)
	}

	// Copy the tail into a fresh slice so the dropped payloads are
	// actually released.
	rest := make([]chunk, len(q.chunks)-drop)
	copy(rest, q.chunks[drop:])
	q.chunks = rest

	q.droppedChunks += uint64(drop)
	q.droppedBytes += uint64(droppedBytes)
	return drop, droppedBytes
}

// drain removes chunks from the front of the queue until the byte
// budget is reached and returns their concatenation. The first chunk is
// always taken, even when it alone exceeds the budget, so an oversized
// chunk cannot stall the queue. Returns the coalesced payload and the
// number of chunks left behind.
func (q *writeQueue) drain(budget int) (payload []byte, remaining int) {
	if len(q.chunks) == 0 {
		return nil, 0
	}

	take := 0
	total := 0
	for i, c := range q.chunks {
		if i > 0 && total+len(c.data) > budget {
			break
		}
		total += len(c.data)
		take = i + 1
	}

	payload = make([]byte, 0, total)
	for _, c := range q.chunks[:take] {
		payload = append(payload, c.data...)
	}

	rest := make([]chunk, len(q.chunks)-take)
	copy(rest, q.chunks[take:])
	q.chunks = rest

	return payload, len(q.chunks)
}

// clear discards all pending chunks without flushing.
func (q *writeQueue) clear() {
	q.chunks = nil
}

func (q *writeQueue) len() int {
	return len(q.chunks)
}
