package pick

// Outbox holds pick results produced during a frame until the session hands
// them to the host after the frame has finished.
type Outbox struct {
	batches [][]uint64
}

// Push queues one pick result.
func (o *Outbox) Push(ids []uint64) {
	o.batches = append(o.batches, ids)
}

// Drain returns and forgets every queued result, oldest first.
func (o *Outbox) Drain() [][]uint64 {
	out := o.batches
	o.batches = nil
	return out
}

// Len is the number of queued results.
func (o *Outbox) Len() int {
	return len(o.batches)
}
