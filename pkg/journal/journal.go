// Package journal records relayed traffic as a zstd compressed stream of
// msgpack records so that a match can be inspected or replayed offline.
package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cbodonnell/ducktag/pkg/clock"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Record is one relayed message.
type Record struct {
	// Timestamp is when the relay received the message in milliseconds
	Timestamp int64 `msgpack:"ts"`
	// Conn is the relay's id for the sending connection
	Conn    string `msgpack:"conn"`
	Payload []byte `msgpack:"payload"`
}

// Writer appends records to a journal. It is safe for concurrent use.
type Writer struct {
	lock   sync.Mutex
	clock  clock.Clock
	zw     *zstd.Encoder
	enc    *msgpack.Encoder
	closer io.Closer
	closed bool
}

// ErrClosed is returned when writing to a closed journal.
var ErrClosed = errors.New("journal closed")

// NewWriter starts a journal on w.
func NewWriter(w io.Writer, clk clock.Clock) (*Writer, error) {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	return &Writer{
		clock: clk,
		zw:    zw,
		enc:   msgpack.NewEncoder(zw),
	}, nil
}

// Create starts a journal in a new file at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal file: %v", err)
	}
	w, err := NewWriter(f, nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Record appends a message received from the given connection.
func (w *Writer) Record(conn string, payload []byte) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return ErrClosed
	}
	record := &Record{
		Timestamp: w.clock.Now().UnixMilli(),
		Conn:      conn,
		Payload:   payload,
	}
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode journal record: %v", err)
	}
	return nil
}

// Flush writes any buffered records through to the underlying writer.
func (w *Writer) Flush() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.zw.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %v", err)
	}
	return nil
}

// Close ends the zstd stream and closes the file if the journal owns one.
// Later calls to Record, Flush or Close return ErrClosed.
func (w *Writer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %v", err)
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			return fmt.Errorf("failed to close journal file: %v", err)
		}
	}
	return nil
}

// Reader iterates the records of a journal.
type Reader struct {
	zr     *zstd.Decoder
	dec    *msgpack.Decoder
	closer io.Closer
}

func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	return &Reader{
		zr:  zr,
		dec: msgpack.NewDecoder(zr),
	}, nil
}

// Open reads the journal file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %v", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (*Record, error) {
	record := &Record{}
	if err := r.dec.Decode(record); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode journal record: %v", err)
	}
	return record, nil
}

// Each calls fn for every remaining record, stopping at the first error.
func (r *Reader) Each(fn func(*Record) error) error {
	for {
		record, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func (r *Reader) Close() error {
	r.zr.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
