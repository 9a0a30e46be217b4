package rtl

import (
	"silica/bit"
)

// Queue is a one-slot FIFO. Enq requires NotFull and Deq requires
// CanDeq on the cycle they fire; the preconditions are the designer's
// to uphold.
type Queue struct {
	m    *Module
	full *Reg
	data *Reg
	enq  *Wire
	deq  *Wire
}

// NewQueue creates a one-slot queue of w-bit payloads.
func (m *Module) NewQueue(w int) *Queue {
	q := &Queue{
		m:    m,
		full: m.Reg(bit.Const(1, 0)).Named("queue_full"),
		data: m.RegU(w),
		enq:  m.WireU(w),
		deq:  m.Wire(bit.Const(1, 0)),
	}
	q.data.Named("queue_data")
	enqFire := q.enq.Active()
	deqFire := q.deq.Val()
	m.When(enqFire, func() {
		q.data.Assign(q.enq.Val())
		q.full.Assign(bit.Const(1, 1))
	})
	m.When(deqFire.And(enqFire.Not()), func() {
		q.full.Assign(bit.Const(1, 0))
	})
	return q
}

// NotFull is high when the queue can accept an element.
func (q *Queue) NotFull() bit.Bit { return q.full.Val().Not() }

// NotEmpty is high when the queue holds an element.
func (q *Queue) NotEmpty() bit.Bit { return q.full.Val() }

// CanDeq is high when Deq may fire this cycle.
func (q *Queue) CanDeq() bit.Bit { return q.full.Val() }

// First returns the element at the head of the queue.
func (q *Queue) First() bit.Bit { return q.data.Val() }

// Enq inserts v under the current guard.
func (q *Queue) Enq(v bit.Bit) { q.enq.Assign(v) }

// Deq removes the head element under the current guard.
func (q *Queue) Deq() { q.deq.Assign(bit.Const(1, 1)) }

// Stream is the consumer-side projection of a queue.
type Stream struct {
	value  bit.Bit
	canGet bit.Bit
	get    func()
}

// Stream derives a stream view of the queue.
func (q *Queue) Stream() *Stream {
	return &Stream{
		value:  q.First(),
		canGet: q.CanDeq(),
		get:    q.Deq,
	}
}

// Value returns the element currently offered.
func (s *Stream) Value() bit.Bit { return s.value }

// CanGet is high when Get may fire this cycle.
func (s *Stream) CanGet() bit.Bit { return s.canGet }

// Get consumes the offered element under the current guard.
func (s *Stream) Get() { s.get() }
