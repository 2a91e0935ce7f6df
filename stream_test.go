//go:build linux

package inotify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// pipeStream returns a stream reading from a pipe, and the pipe's write end.
func pipeStream(t *testing.T, size int) (*fdStream, *os.File) {
	t.Helper()
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	s, err := newStream(p[0], "test-r", size)
	if err != nil {
		t.Fatal(err)
	}
	w := os.NewFile(uintptr(p[1]), "test-w")
	t.Cleanup(func() {
		s.close()
		w.Close()
	})
	return s, w
}

// read returns exactly n bytes, consuming them only once all n are there.
func read(ctx context.Context, s *fdStream, n int) ([]byte, error) {
	if err := s.fill(ctx, n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, s.peek(n))
	s.discard(n)
	return b, nil
}

func write(t *testing.T, w *os.File, b []byte) {
	t.Helper()
	if _, err := w.Write(b); err != nil {
		t.Fatal(err)
	}
}

func TestStreamRead(t *testing.T) {
	s, w := pipeStream(t, 16)
	data := bytes.Repeat([]byte("0123456789"), 10)

	write(t, w, data[:3])
	go func() {
		time.Sleep(20 * time.Millisecond)
		w.Write(data[3:])
	}()

	ctx := context.Background()
	var have []byte
	for _, n := range []int{2, 40, 1, 57} {
		b, err := read(ctx, s, n)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != n {
			t.Fatalf("read(%d) returned %d bytes", n, len(b))
		}
		have = append(have, b...)
	}
	if !bytes.Equal(have, data) {
		t.Errorf("\nhave: %q\nwant: %q", have, data)
	}
	if s.buffered() != 0 {
		t.Errorf("buffered: %d", s.buffered())
	}
}

func TestStreamCancel(t *testing.T) {
	s, w := pipeStream(t, 64)
	write(t, w, []byte("abc"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := read(ctx, s, 5)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("wrong error: %v", err)
	}
	if s.buffered() != 3 {
		t.Fatalf("buffered: %d", s.buffered())
	}

	// The deadline is cleared again.
	write(t, w, []byte("de"))
	b, err := read(context.Background(), s, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "abcde" {
		t.Errorf("read: %q", b)
	}

	cctx, ccancel := context.WithCancel(context.Background())
	ccancel()
	if _, err := read(cctx, s, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestStreamClose(t *testing.T) {
	s, _ := pipeStream(t, 64)
	if err := s.close(); err != nil {
		t.Fatal(err)
	}
	if err := s.close(); err != nil {
		t.Errorf("second close: %s", err)
	}
	if _, err := read(context.Background(), s, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("wrong error: %v", err)
	}
}
