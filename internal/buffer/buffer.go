package buffer

import "bytes"

var terminator = []byte("\r\n\r\n")

// Accumulator collects the bytes of a single request as they trickle in from
// the socket and incrementally looks for the CRLFCRLF header terminator.
type Accumulator struct {
	memory    []byte
	maxSize   int
	scanned   int
	headerEnd int
}

func New(initialSize, maxSize int) *Accumulator {
	return &Accumulator{
		memory:    make([]byte, 0, initialSize),
		maxSize:   maxSize,
		headerEnd: -1,
	}
}

// Append writes data, checking whether the new amount of bytes doesn't exceed
// the limit, otherwise discarding the data and returning false.
func (a *Accumulator) Append(data []byte) (ok bool) {
	if len(a.memory)+len(data) > a.maxSize {
		return false
	}

	a.memory = append(a.memory, data...)
	return true
}

// HeaderEnd returns the offset of the header terminator, or -1 if it hasn't
// arrived yet. The scan resumes a few bytes before where the previous one
// stopped, so a terminator split across deliveries is still found. Once
// located, the offset is final: appends of body bytes never move it.
func (a *Accumulator) HeaderEnd() int {
	if a.headerEnd >= 0 {
		return a.headerEnd
	}

	from := a.scanned - len(terminator) + 1
	if from < 0 {
		from = 0
	}

	if idx := bytes.Index(a.memory[from:], terminator); idx != -1 {
		a.headerEnd = from + idx
		return a.headerEnd
	}

	a.scanned = len(a.memory)
	return -1
}

// Bytes returns everything accumulated so far.
func (a *Accumulator) Bytes() []byte {
	return a.memory
}

func (a *Accumulator) Len() int {
	return len(a.memory)
}

// Release frees the accumulated memory. The accumulator must not be used
// afterwards.
func (a *Accumulator) Release() {
	a.memory = nil
}
