package mqtt

import "log"

// bufferedMsg is one MQTT message held for replay after reconnect.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds messages while the broker is unreachable. Capacity
// is fixed; once full the oldest message is dropped, so a long outage
// cannot grow memory without bound. Chute transitions are rare enough
// that a drop means the outage lasted hours, and the next status sync
// catches the broker up anyway. Callers must synchronize access.
type ringBuffer struct {
	msgs    []bufferedMsg
	start   int // index of the oldest message
	size    int
	dropped bool // a drop happened since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{msgs: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.size == len(r.msgs) {
		if !r.dropped {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", len(r.msgs))
			r.dropped = true
		}
		r.msgs[r.start] = msg
		r.start = (r.start + 1) % len(r.msgs)
		return
	}
	r.msgs[(r.start+r.size)%len(r.msgs)] = msg
	r.size++
}

// drainAll returns the buffered messages oldest-first and empties the
// buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.size == 0 {
		return nil
	}
	out := make([]bufferedMsg, r.size)
	for i := range out {
		out[i] = r.msgs[(r.start+i)%len(r.msgs)]
	}
	r.start = 0
	r.size = 0
	r.dropped = false
	return out
}

func (r *ringBuffer) len() int {
	return r.size
}
