package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// ackResponse is what the HID firmware prints after each command
const ackResponse = "received"

// SerialScroller drives an Arduino HID that turns "scroll_down:<x>" lines
// into one mouse wheel detent. x is forwarded to the firmware, which moves
// the pointer there before scrolling.
type SerialScroller struct {
	port   io.ReadWriter
	reader *bufio.Reader
	closer io.Closer
	x      int
	mu     sync.Mutex
}

// OpenSerialScroller opens the serial port of the HID
func OpenSerialScroller(name string, baud, x int) (*SerialScroller, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	s := NewSerialScroller(port, x)
	s.closer = port
	return s, nil
}

// NewSerialScroller wraps an already open port
func NewSerialScroller(port io.ReadWriter, x int) *SerialScroller {
	return &SerialScroller{
		port:   port,
		reader: bufio.NewReader(port),
		x:      x,
	}
}

// ScrollStep sends one scroll command and waits for the acknowledgement
func (s *SerialScroller) ScrollStep() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := fmt.Sprintf("scroll_down:%d\n", s.x)
	if _, err := s.port.Write([]byte(message)); err != nil {
		return fmt.Errorf("error writing to arduino: %w", err)
	}

	return s.waitFor(ackResponse)
}

// waitFor reads one line and compares it to the expected response
func (s *SerialScroller) waitFor(expected string) error {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("error reading from arduino: %w", err)
	}

	if response := strings.TrimSpace(line); response != expected {
		return fmt.Errorf("unexpected response: '%s'", response)
	}
	return nil
}

// Close releases the serial port
func (s *SerialScroller) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
