package serial

import (
	"errors"
	"io"

	tarm "github.com/tarm/serial"
)

// tarmPort wraps github.com/tarm/serial. tarm has no output drain and
// reports an expired read timeout as io.EOF.
type tarmPort struct {
	port *tarm.Port
}

func openTarm(cfg Config) (*tarmPort, error) {
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.PollTimeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	})
	if err != nil {
		return nil, err
	}
	return &tarmPort{port: port}, nil
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}

// Flush is a no-op: tarm writes go straight to the descriptor.
func (p *tarmPort) Flush() error {
	return nil
}

// ResetInput maps to tarm's Flush, which discards both buffers.
func (p *tarmPort) ResetInput() error {
	return p.port.Flush()
}
