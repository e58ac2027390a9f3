package lx200

import (
	"bytes"
	"testing"
)

func feedAll(f *Framer, in []byte) []string {
	var out []string
	for _, b := range in {
		if cmd, ok := f.Feed(b); ok {
			out = append(out, cmd.String())
		}
	}
	return out
}

func TestFramerEmitsDelimitedCommands(t *testing.T) {
	var f Framer
	got := feedAll(&f, []byte(":GR#:GD#"))
	if len(got) != 2 || got[0] != ":GR#" || got[1] != ":GD#" {
		t.Fatalf("unexpected commands: %q", got)
	}
	if f.Receiving() {
		t.Fatalf("framer should be idle after terminator")
	}
}

func TestFramerDiscardsBytesBeforeStart(t *testing.T) {
	var f Framer
	got := feedAll(&f, []byte("##junk\r\n#:GVP#"))
	if len(got) != 1 || got[0] != ":GVP#" {
		t.Fatalf("unexpected commands: %q", got)
	}
}

func TestFramerEmbeddedColonIsPayload(t *testing.T) {
	var f Framer
	got := feedAll(&f, []byte(":Sr12:34:56#"))
	if len(got) != 1 || got[0] != ":Sr12:34:56#" {
		t.Fatalf("unexpected commands: %q", got)
	}

	got = feedAll(&f, []byte(":GR:GD#"))
	if len(got) != 1 || got[0] != ":GR:GD#" {
		t.Fatalf("second colon must not restart framing: %q", got)
	}
}

func TestFramerKeepsNonPrintableBytes(t *testing.T) {
	var f Framer
	in := []byte{':', 'X', 0x01, 0x7f, '#'}
	cmd, ok := Command(nil), false
	for _, b := range in {
		cmd, ok = f.Feed(b)
	}
	if !ok || !bytes.Equal(cmd, in) {
		t.Fatalf("unexpected command: %v ok=%v", cmd, ok)
	}
}

func TestFramerUnterminatedCommandStaysPending(t *testing.T) {
	var f Framer
	if got := feedAll(&f, []byte(":GR")); len(got) != 0 {
		t.Fatalf("unexpected commands: %q", got)
	}
	if !f.Receiving() || string(f.Pending()) != ":GR" {
		t.Fatalf("unexpected pending state receiving=%v pending=%q", f.Receiving(), f.Pending())
	}
	f.Reset()
	if f.Receiving() || f.Pending() != nil {
		t.Fatalf("reset must clear accumulator")
	}
}

func TestFramerEmittedCommandIsNotAliased(t *testing.T) {
	var f Framer
	var cmd Command
	for _, b := range []byte(":AA#") {
		if c, ok := f.Feed(b); ok {
			cmd = c
		}
	}
	feedAll(&f, []byte(":ZZ#"))
	if string(cmd) != ":AA#" {
		t.Fatalf("emitted command mutated: %q", cmd)
	}
}

func TestPrintable(t *testing.T) {
	cases := map[byte]string{
		'\r': `\r`,
		'\n': `\n`,
		'\t': `\t`,
		'A':  "A",
		'#':  "#",
		0x06: ".",
		0xff: ".",
	}
	for in, want := range cases {
		if got := Printable(in); got != want {
			t.Fatalf("Printable(0x%02x) = %q want %q", in, got, want)
		}
	}
	if got := PrintableString("1#\r\n"); got != `1#\r\n` {
		t.Fatalf("unexpected printable string: %q", got)
	}
}
