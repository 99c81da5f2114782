package console

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keys struct {
	mu  sync.Mutex
	got []byte
}

func (k *keys) OnConsoleCommand(b byte) {
	k.mu.Lock()
	k.got = append(k.got, b)
	k.mu.Unlock()
}

func (k *keys) bytes() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]byte(nil), k.got...)
}

func wait(t *testing.T, c *Console) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not exit")
	}
}

func TestConsole_ForwardsEveryByte(t *testing.T) {
	k := &keys{}
	c := NewFromReader(strings.NewReader("aq\x03Q"), k)
	wait(t, c)

	assert.Equal(t, []byte{'a', KeyQuit, KeyCtrlC, KeyQuitUpper}, k.bytes())
	assert.False(t, c.IsRaw())
}

func TestConsole_CloseStopsForwarding(t *testing.T) {
	pr, pw := io.Pipe()
	got := make(chan byte, 4)
	c := NewFromReader(pr, SinkFunc(func(b byte) { got <- b }))

	_, err := pw.Write([]byte{'x'})
	require.NoError(t, err)
	assert.Equal(t, byte('x'), <-got)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// The reader is still blocked; the next byte unblocks it and is dropped.
	_, err = pw.Write([]byte{'q'})
	require.NoError(t, err)
	wait(t, c)
	_ = pw.Close()

	select {
	case b := <-got:
		t.Fatalf("byte %q forwarded after Close", b)
	default:
	}
}

func TestConsole_NonTerminalFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	_, err = f.WriteString("q")
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	defer f.Close()

	k := &keys{}
	c, err := New(f, k)
	require.NoError(t, err)
	wait(t, c)

	assert.False(t, c.IsRaw())
	assert.Equal(t, []byte{KeyQuit}, k.bytes())
	assert.NoError(t, c.Close())
}

func TestOutput_TranslatesNewlines(t *testing.T) {
	var buf bytes.Buffer
	w := Output(&buf)

	n, err := w.Write([]byte("one\ntwo\r\nthree"))
	require.NoError(t, err)
	assert.Equal(t, len("one\ntwo\r\nthree"), n)
	assert.Equal(t, "one\r\ntwo\r\nthree", buf.String())
}
