package journal

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbodonnell/ducktag/pkg/clock"
	"github.com/cbodonnell/ducktag/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RoundTrip(t *testing.T) {
	clk := clock.NewFakeClock(time.UnixMilli(1717243200000))
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, clk)
	require.NoError(t, err)

	payloads := [][]byte{
		[]byte(`{"type":"playerJoin","id":"a","x":1,"y":2,"isIt":false}`),
		[]byte(`{"type":"gameStart","hostId":"a"}`),
	}
	require.NoError(t, w.Record("conn-1", payloads[0]))
	clk.Advance(time.Second)
	require.NoError(t, w.Record("conn-2", payloads[1]))
	require.NoError(t, w.Close())

	r, err := NewReader(buf)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, &Record{Timestamp: 1717243200000, Conn: "conn-1", Payload: payloads[0]}, first)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "conn-2", second.Conn)
	assert.Equal(t, int64(1717243201000), second.Timestamp)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestJournal_FileReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.journal")
	w, err := Create(path)
	require.NoError(t, err)
	events := []messages.Event{
		&messages.Join{ID: "a", X: 100, Y: 200},
		&messages.Move{ID: "a", X: 105, Y: 200},
		&messages.Leave{ID: "a"},
	}
	for _, ev := range events {
		b, err := messages.SerializeEvent(ev)
		require.NoError(t, err)
		require.NoError(t, w.Record("conn-1", b))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	var types []messages.MessageType
	err = r.Each(func(record *Record) error {
		ev, err := messages.DeserializeEvent(record.Payload)
		if err != nil {
			return err
		}
		types = append(types, ev.Type())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []messages.MessageType{messages.MessageTypeJoin, messages.MessageTypeMove, messages.MessageTypeLeave}, types)
}

func TestJournal_EachStopsOnError(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, nil)
	require.NoError(t, err)
	require.NoError(t, w.Record("a", []byte("1")))
	require.NoError(t, w.Record("a", []byte("2")))
	require.NoError(t, w.Close())

	r, err := NewReader(buf)
	require.NoError(t, err)
	defer r.Close()

	stop := errors.New("stop")
	calls := 0
	err = r.Each(func(*Record) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestJournal_RecordAfterClose(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Record("conn-1", []byte("a")))
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Record("conn-1", []byte("b")), ErrClosed)
	assert.ErrorIs(t, w.Flush(), ErrClosed)
	assert.ErrorIs(t, w.Close(), ErrClosed)
}
