package toolrun

import "bytes"

// Splitter accumulates stream bytes and cuts complete top-level JSON objects or
// arrays off the front of its buffer. Bytes are only removed together with a
// complete value: leading filler (e.g. SSE "data: " prefixes) and an incomplete
// trailing value stay buffered until a later Extract can consume them.
//
// Scanning tracks the depth of the value's own bracket pair and whether it is
// inside a string (with backslash escapes), so brackets in string content are
// ignored. The scan position of an incomplete value is kept between calls.
//
// The zero value is ready to use. A Splitter is not safe for concurrent use.
type Splitter struct {
	buf []byte

	pos      int  // next byte to scan
	inValue  bool // an opener was found at start
	start    int
	opener   byte
	closer   byte
	depth    int
	inString bool
	escaped  bool
}

// Write appends p to the buffer. It never fails.
func (s *Splitter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Extract returns every complete value currently at the front of the buffer, in order,
// and removes each value together with the bytes before it.
func (s *Splitter) Extract() [][]byte {
	var out [][]byte
	for {
		if !s.inValue && !s.seekOpener() {
			return out
		}
		end, ok := s.scan()
		if !ok {
			return out
		}
		out = append(out, bytes.Clone(s.buf[s.start:end]))
		s.buf = append(s.buf[:0], s.buf[end:]...)
		s.pos = 0
		s.inValue = false
	}
}

// Buffered returns a copy of the bytes not yet consumed by Extract.
func (s *Splitter) Buffered() []byte {
	return bytes.Clone(s.buf)
}

// Reset discards the buffer and scan state.
func (s *Splitter) Reset() {
	*s = Splitter{buf: s.buf[:0]}
}

// seekOpener moves to the next '{' or '['. Filler bytes are kept in the buffer.
func (s *Splitter) seekOpener() bool {
	i := bytes.IndexAny(s.buf[s.pos:], "{[")
	if i < 0 {
		s.pos = len(s.buf)
		return false
	}
	s.start = s.pos + i
	s.pos = s.start
	s.opener = s.buf[s.start]
	s.closer = '}'
	if s.opener == '[' {
		s.closer = ']'
	}
	s.depth = 0
	s.inString = false
	s.escaped = false
	s.inValue = true
	return true
}

// scan advances through the current value and returns the end offset (exclusive)
// once its depth returns to zero.
func (s *Splitter) scan() (int, bool) {
	for ; s.pos < len(s.buf); s.pos++ {
		c := s.buf[s.pos]
		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			}
			continue
		}
		switch c {
		case '"':
			s.inString = true
		case s.opener:
			s.depth++
		case s.closer:
			s.depth--
			if s.depth == 0 {
				s.pos++
				return s.pos, true
			}
		}
	}
	return 0, false
}
