package event

import "reflect"

// Bus holds one double-buffered queue per event type. Emitted events stay
// readable until two maintenance cycles (Update calls) have passed, so a
// system reading once per frame never misses one.
//
// The bus is not safe for concurrent use. Cross-goroutine producers must go
// through the platform wake proxy, which hands payloads to the loop thread.
type Bus struct {
	queues map[reflect.Type]buffered
}

type buffered interface {
	maintain()
}

type queue[T any] struct {
	previous []T
	current  []T
	// sequence number of previous[0]; grows monotonically as old
	// events are dropped
	start uint64
}

func (q *queue[T]) maintain() {
	q.start += uint64(len(q.previous))
	q.previous = q.current
	q.current = nil
}

func NewBus() *Bus {
	return &Bus{queues: make(map[reflect.Type]buffered)}
}

// Update runs one maintenance cycle: events emitted two cycles ago are
// dropped. Called once per frame at the top of the schedule.
func (b *Bus) Update() {
	for _, q := range b.queues {
		q.maintain()
	}
}

func queueFor[T any](b *Bus) *queue[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if q, ok := b.queues[key]; ok {
		return q.(*queue[T])
	}
	q := &queue[T]{}
	b.queues[key] = q
	return q
}

// Emit appends an event to the current cycle's buffer.
func Emit[T any](b *Bus, ev T) {
	q := queueFor[T](b)
	q.current = append(q.current, ev)
}

// Reader is a per-consumer cursor over one event type. The zero value reads
// every event still retained by the bus.
type Reader[T any] struct {
	seen uint64
}

// Read returns the events of type T this reader has not seen yet, oldest
// first, and advances the cursor. A reader that falls behind skips the
// dropped events and catches up.
func Read[T any](b *Bus, r *Reader[T]) []T {
	q := queueFor[T](b)
	total := uint64(len(q.previous)) + uint64(len(q.current))
	if r.seen < q.start {
		r.seen = q.start
	}
	offset := r.seen - q.start
	if offset >= total {
		r.seen = q.start + total
		return nil
	}

	out := make([]T, 0, total-offset)
	for i := offset; i < total; i++ {
		if i < uint64(len(q.previous)) {
			out = append(out, q.previous[i])
		} else {
			out = append(out, q.current[i-uint64(len(q.previous))])
		}
	}
	r.seen = q.start + total
	return out
}
