package main

import (
	"fmt"

	"go.bug.st/serial"
)

// MIDIBaud is the DIN MIDI line rate.
const MIDIBaud = 31250

// CVPort wraps a go.bug.st/serial port with a frame-send helper for the
// interface board.
type CVPort struct {
	port serial.Port
	name string
}

// OpenCVPort opens the interface-board serial device at the given baud rate.
func OpenCVPort(name string, baud int) (*CVPort, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	logger.Info("serial: cv port opened", "device", name, "baud", baud)
	return &CVPort{port: p, name: name}, nil
}

// SendFrame encodes and writes a Frame to the board.
func (c *CVPort) SendFrame(f Frame) {
	data := f.Encode()
	n, err := c.port.Write(data)
	if err != nil {
		logger.Error("serial: cv write failed", "device", c.name, "err", err)
		return
	}
	logger.Debug("serial: frame sent", "bytes", n, "seq", f.Seq, "flags", f.Flags)
}

// Close closes the underlying serial port.
func (c *CVPort) Close() {
	logger.Info("serial: closing cv port", "device", c.name)
	_ = c.port.Close()
}

// SerialIn reads raw MIDI bytes from a DIN receiver on a serial device and
// pushes them into a byte queue from a background goroutine. The poll loop
// never touches the port directly.
type SerialIn struct {
	port serial.Port
	name string
}

// OpenSerialIn opens the DIN MIDI device and starts the reader goroutine.
func OpenSerialIn(name string, baud int, q *byteQueue) (*SerialIn, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	s := &SerialIn{port: p, name: name}
	go s.pump(q)
	logger.Info("serial: midi input opened", "device", name, "baud", baud)
	return s, nil
}

func (s *SerialIn) pump(q *byteQueue) {
	buf := make([]byte, 64)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			logger.Warn("serial: midi input closed", "device", s.name, "err", err)
			return
		}
		q.PushAll(buf[:n])
	}
}

// Close closes the port, which also stops the reader goroutine.
func (s *SerialIn) Close() {
	logger.Info("serial: closing midi input", "device", s.name)
	_ = s.port.Close()
}

// listSerialPorts enumerates serial devices for -list.
func listSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
