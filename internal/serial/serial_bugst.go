package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
)

// bugstPort wraps go.bug.st/serial.
type bugstPort struct {
	port bugst.Port
}

func openBugst(cfg Config) (*bugstPort, error) {
	mode := &bugst.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	port, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(cfg.PollTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &bugstPort{port: port}, nil
}

func (p *bugstPort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *bugstPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *bugstPort) Close() error {
	return p.port.Close()
}

func (p *bugstPort) Flush() error {
	return p.port.Drain()
}

func (p *bugstPort) ResetInput() error {
	return p.port.ResetInputBuffer()
}

func (p *bugstPort) ModemLine(line ModemLine) (bool, error) {
	bits, err := p.port.GetModemStatusBits()
	if err != nil {
		return false, err
	}
	switch line {
	case LineCTS:
		return bits.CTS, nil
	case LineDSR:
		return bits.DSR, nil
	case LineDCD:
		return bits.DCD, nil
	case LineRI:
		return bits.RI, nil
	default:
		return false, fmt.Errorf("serial: unknown modem line %q", line)
	}
}
