package lx200

import "strings"

const (
	StartMarker byte = ':'
	EndMarker   byte = '#'

	// Probe is the unframed mount-type query some clients send; the reply is ProbeReply.
	Probe      byte = 0x06
	ProbeReply byte = 'A'
)

// Command is one framed request, markers included.
type Command []byte

func (c Command) String() string {
	return string(c)
}

// Complete reports whether c is delimited by both markers.
func (c Command) Complete() bool {
	return len(c) >= 2 && c[0] == StartMarker && c[len(c)-1] == EndMarker
}

// Printable renders a single byte for diagnostics.
func Printable(b byte) string {
	switch b {
	case '\r':
		return `\r`
	case '\n':
		return `\n`
	case '\t':
		return `\t`
	}
	if b >= 0x20 && b < 0x7f {
		return string(rune(b))
	}
	return "."
}

// PrintableString applies Printable to every byte of s.
func PrintableString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		sb.WriteString(Printable(s[i]))
	}
	return sb.String()
}
