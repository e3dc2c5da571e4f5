// Package source decodes a byte stream into top-level JSON values, one at a time.
// Values may be concatenated or separated by any whitespace, as written by the
// compositor's timeline log.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/penwyp/go-wesgr/internal/util"
)

// readerBufferSize matches the chunk size the compositor flushes its log with
const readerBufferSize = 8192

// decoder keeps numbers as json.Number so that 64-bit millisecond timestamps
// survive decoding
var decoder = sonic.Config{
	UseNumber:      true,
	CopyString:     true,
	ValidateString: true,
}.Froze()

// errTruncated reports input that ends inside a value
var errTruncated = errors.New("unexpected end of input")

// Stream yields decoded values. The scanner only finds where each top-level
// value starts and ends; sonic does the actual parsing.
type Stream struct {
	name    string
	reader  *bufio.Reader
	readErr error
	n       int64
	values  int
	done    bool
	buf     []byte
}

// NewStream decodes values from r. name is used in diagnostics only.
func NewStream(name string, r io.Reader) *Stream {
	return &Stream{
		name:   name,
		reader: bufio.NewReaderSize(r, readerBufferSize),
	}
}

// Next returns the next top-level value, io.EOF once the input is exhausted,
// a source error when reading fails and a decode error on malformed JSON.
// Input ending in the middle of a value is malformed. Errors are sticky.
func (s *Stream) Next() (interface{}, error) {
	if s.done {
		return nil, io.EOF
	}

	raw, err := s.scan()
	if err == nil {
		var value interface{}
		if err = decoder.Unmarshal(raw, &value); err == nil {
			s.values++
			return value, nil
		}
	}

	s.done = true
	if s.readErr != nil {
		return nil, errs.Source("read "+s.name, s.readErr)
	}
	if errors.Is(err, io.EOF) {
		util.LogDebugf("Decoded %d values from %s (%d bytes)", s.values, s.name, s.n)
		return nil, io.EOF
	}
	return nil, errs.Decode("decode "+s.name, fmt.Errorf("after value %d at byte %d: %w", s.values, s.n, err))
}

// readByte returns io.EOF at the end of input and remembers any other failure
func (s *Stream) readByte() (byte, error) {
	c, err := s.reader.ReadByte()
	if err != nil {
		if !errors.Is(err, io.EOF) && s.readErr == nil {
			s.readErr = err
		}
		return 0, err
	}
	s.n++
	return c, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	switch c {
	case '{', '}', '[', ']', '"', ',', ':':
		return true
	}
	return isSpace(c)
}

// scan returns the bytes of the next top-level value. It returns io.EOF when
// only whitespace is left and errTruncated when the input stops inside a value.
func (s *Stream) scan() ([]byte, error) {
	var c byte
	var err error
	for {
		if c, err = s.readByte(); err != nil {
			return nil, err
		}
		if !isSpace(c) {
			break
		}
	}

	s.buf = append(s.buf[:0], c)
	truncated := func(err error) error {
		if errors.Is(err, io.EOF) {
			return errTruncated
		}
		return err
	}

	switch c {
	case '{', '[':
		depth, inString, escaped := 1, false, false
		for depth > 0 {
			if c, err = s.readByte(); err != nil {
				return nil, truncated(err)
			}
			s.buf = append(s.buf, c)
			switch {
			case inString && escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case inString && c == '"':
				inString = false
			case inString:
			case c == '"':
				inString = true
			case c == '{' || c == '[':
				depth++
			case c == '}' || c == ']':
				depth--
			}
		}
	case '"':
		escaped := false
		for {
			if c, err = s.readByte(); err != nil {
				return nil, truncated(err)
			}
			s.buf = append(s.buf, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				break
			}
		}
	case '}', ']', ',', ':':
		return nil, fmt.Errorf("unexpected %q", c)
	default:
		// bare scalar: number, true, false or null
		for {
			if c, err = s.readByte(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, err
			}
			if isDelimiter(c) {
				_ = s.reader.UnreadByte()
				s.n--
				break
			}
			s.buf = append(s.buf, c)
		}
	}

	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out, nil
}

// Values returns how many values have been decoded so far
func (s *Stream) Values() int {
	return s.values
}

// File is a Stream reading from a file or, for "-", from stdin
type File struct {
	*Stream
	closer io.Closer
}

// Open opens path for decoding
func Open(path string) (*File, error) {
	if path == "-" {
		return &File{Stream: NewStream("stdin", os.Stdin)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Source("open "+path, err)
	}
	util.LogDebugf("Start decoding file: %s", path)
	return &File{Stream: NewStream(path, f), closer: f}, nil
}

// Close releases the underlying file
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
