// Package reset watches the line the mount controller pulls to request a
// bridge restart.
package reset

import (
	"errors"

	"github.com/danmuck/lx200bridge/internal/serial"
)

var ErrNoLines = errors.New("reset: port has no modem status lines")

// Line reports whether a restart is being requested.
type Line interface {
	Asserted() (bool, error)
}

// ModemLine maps a serial modem status input to a reset line. With
// ActiveLow the request is signalled by the input going low, matching a
// pulled-up input that the controller grounds.
type ModemLine struct {
	lines     serial.ModemLines
	line      serial.ModemLine
	activeLow bool
}

// FromPort builds a reset line on port, which must expose modem lines.
func FromPort(port serial.Port, line serial.ModemLine, activeLow bool) (*ModemLine, error) {
	lines, ok := port.(serial.ModemLines)
	if !ok {
		return nil, ErrNoLines
	}
	return &ModemLine{lines: lines, line: line, activeLow: activeLow}, nil
}

func (m *ModemLine) Asserted() (bool, error) {
	high, err := m.lines.ModemLine(m.line)
	if err != nil {
		return false, err
	}
	return high != m.activeLow, nil
}

// Never is a Line that is never asserted.
type Never struct{}

func (Never) Asserted() (bool, error) { return false, nil }
