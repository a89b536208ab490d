package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// MaxMessageSize bounds a single frame.
const MaxMessageSize = 16 << 20

// ServeFunc turns one request payload into one response payload.
type ServeFunc func([]byte) ([]byte, error)

// ServeUnix accepts a handler for net.Conn
func ServeUnix(socketPath string, handler func(net.Conn)) error {
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}
	defer l.Close()
	return Serve(l, handler)
}

// Serve runs handler on its own goroutine for every accepted connection
// until the listener is closed.
func Serve(l net.Listener, handler func(net.Conn)) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go handler(conn)
	}
}

// ConnHandler answers framed requests on a connection until the peer hangs up.
func ConnHandler(serve ServeFunc, logger log.Logger) func(net.Conn) {
	return func(conn net.Conn) {
		defer conn.Close()
		rd := bufio.NewReader(conn)
		for {
			msg, err := ReadMessage(rd)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					level.Warn(logger).Log("msg", "error reading", "err", err)
				}
				return
			}
			resp, err := serve(msg)
			if err != nil {
				level.Warn(logger).Log("msg", "handler error", "err", err)
				return
			}
			if err := WriteMessage(conn, resp); err != nil {
				level.Warn(logger).Log("msg", "error writing", "err", err)
				return
			}
		}
	}
}

// Simple framing helpers: a 4 byte big-endian length followed by the payload.
func ReadMessage(r io.Reader) ([]byte, error) {
	lengthBytes := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lengthBytes)
	if length > MaxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func WriteMessage(w io.Writer, data []byte) error {
	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	_, err := w.Write(frame)
	return err
}
