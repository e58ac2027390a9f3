package lx200

// Framer splits a client byte stream into Commands.
//
// Outside a command every byte is dropped until a start marker. Inside a
// command every byte is payload, a second start marker included, until the
// end marker closes it. Stray end markers before a start marker are
// discarded, which covers clients that prefix commands with '#'.
type Framer struct {
	buf       []byte
	receiving bool
}

// Feed consumes one byte and returns a Command when b completes one.
func (f *Framer) Feed(b byte) (Command, bool) {
	if !f.receiving {
		if b == StartMarker {
			f.receiving = true
			f.buf = append(f.buf[:0], b)
		}
		return nil, false
	}

	f.buf = append(f.buf, b)
	if b != EndMarker {
		return nil, false
	}
	f.receiving = false
	cmd := make(Command, len(f.buf))
	copy(cmd, f.buf)
	f.buf = f.buf[:0]
	return cmd, true
}

// Receiving reports whether a command is partially accumulated.
func (f *Framer) Receiving() bool {
	return f.receiving
}

// Pending returns a copy of the partial command.
func (f *Framer) Pending() []byte {
	if !f.receiving {
		return nil
	}
	out := make([]byte, len(f.buf))
	copy(out, f.buf)
	return out
}

// Reset drops any partial command.
func (f *Framer) Reset() {
	f.receiving = false
	f.buf = f.buf[:0]
}
