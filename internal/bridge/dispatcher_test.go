package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/testutil/testlog"
)

type forwardCall struct {
	cmd         string
	expectReply bool
}

type stubLink struct {
	mu      sync.Mutex
	calls   []forwardCall
	replies map[string]string
	err     error
}

func (l *stubLink) Forward(_ context.Context, cmd lx200.Command, expectReply bool) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, forwardCall{cmd: cmd.String(), expectReply: expectReply})
	if l.err != nil {
		return "", l.err
	}
	if !expectReply {
		return "", nil
	}
	return l.replies[cmd.String()], nil
}

func (l *stubLink) Calls() []forwardCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]forwardCall(nil), l.calls...)
}

func newTestDispatcher(replies map[string]string) (*Dispatcher, *stubLink) {
	link := &stubLink{replies: replies}
	return NewDispatcher(lx200.DefaultRules(), link), link
}

func TestDispatchLocalAnswersSkipLink(t *testing.T) {
	testlog.Start(t)
	d, link := newTestDispatcher(nil)
	cases := map[string]string{
		":GVP#": "On-Step#",
		":GVN#": "2.0#",
		":GVD#": "May 2025#",
		":GVT#": "08:02:00#",
	}
	for cmd, want := range cases {
		got := d.Dispatch(context.Background(), lx200.Command(cmd))
		if got.Kind != lx200.LocalAnswer || got.Reply != want {
			t.Fatalf("%s: got %+v, want local %q", cmd, got, want)
		}
	}
	if calls := link.Calls(); len(calls) != 0 {
		t.Fatalf("local answers must not reach the link: %+v", calls)
	}
}

func TestDispatchNoResponseCommands(t *testing.T) {
	testlog.Start(t)
	d, link := newTestDispatcher(map[string]string{":Me#": "junk#"})
	for _, cmd := range lx200.NoResponseCommands {
		got := d.Dispatch(context.Background(), lx200.Command(cmd))
		if got.Kind != lx200.Suppressed || got.Reply != "" {
			t.Fatalf("%s: got %+v, want suppressed", cmd, got)
		}
	}
	calls := link.Calls()
	if len(calls) != len(lx200.NoResponseCommands) {
		t.Fatalf("expected %d forwards, got %d", len(lx200.NoResponseCommands), len(calls))
	}
	for _, c := range calls {
		if c.expectReply {
			t.Fatalf("%s forwarded expecting a reply", c.cmd)
		}
	}
}

func TestDispatchRewritesSiteLongitude(t *testing.T) {
	testlog.Start(t)
	d, link := newTestDispatcher(map[string]string{":SG+06#": "1#"})
	got := d.Dispatch(context.Background(), lx200.Command(":SG+06.0#"))
	if got.Kind != lx200.Forwarded || got.Reply != "1" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	calls := link.Calls()
	if len(calls) != 1 || calls[0].cmd != ":SG+06#" || !calls[0].expectReply {
		t.Fatalf("unexpected forwards: %+v", calls)
	}
}

func TestDispatchOverridesReplies(t *testing.T) {
	testlog.Start(t)
	d, _ := newTestDispatcher(map[string]string{
		":SC05/12/25#": "1",
		":Q#":          "0#",
	})
	got := d.Dispatch(context.Background(), lx200.Command(":SC05/12/25#"))
	if got.Reply != lx200.SitePlanetaryReply {
		t.Fatalf("unexpected :SC reply: %q", got.Reply)
	}
	got = d.Dispatch(context.Background(), lx200.Command(":Q#"))
	if got.Reply != "1" {
		t.Fatalf("unexpected :Q reply: %q", got.Reply)
	}
}

func TestDispatchOverrideKeepsEmptyReply(t *testing.T) {
	testlog.Start(t)
	d, _ := newTestDispatcher(nil)
	got := d.Dispatch(context.Background(), lx200.Command(":SC05/12/25#"))
	if got.Kind != lx200.Forwarded || got.Reply != "" {
		t.Fatalf("silent controller must yield empty reply: %+v", got)
	}
}

func TestDispatchCompressesBooleans(t *testing.T) {
	testlog.Start(t)
	d, _ := newTestDispatcher(map[string]string{
		":Sr12:00:00#": "1#",
		":Sd+10:00#":   "0#",
		":GR#":         "12:34:56#",
	})
	cases := map[string]string{
		":Sr12:00:00#": "1",
		":Sd+10:00#":   "0",
		":GR#":         "12:34:56#",
	}
	for cmd, want := range cases {
		if got := d.Dispatch(context.Background(), lx200.Command(cmd)); got.Reply != want {
			t.Fatalf("%s: got %q, want %q", cmd, got.Reply, want)
		}
	}
}

func TestDispatchCompressesLocalAnswers(t *testing.T) {
	testlog.Start(t)
	id := lx200.DefaultIdentity()
	id.FirmwareVersion = "1"
	link := &stubLink{}
	d := NewDispatcher(lx200.NewRules(id), link)

	got := d.Dispatch(context.Background(), lx200.Command(":GVN#"))
	if got.Kind != lx200.LocalAnswer || got.Reply != "1" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if calls := link.Calls(); len(calls) != 0 {
		t.Fatalf("local answer reached the link: %+v", calls)
	}
}

func TestDispatchLinkErrorYieldsEmptyReply(t *testing.T) {
	testlog.Start(t)
	d, link := newTestDispatcher(nil)
	link.err = errors.New("port gone")
	got := d.Dispatch(context.Background(), lx200.Command(":GR#"))
	if got.Kind != lx200.Forwarded || got.Reply != "" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	got = d.Dispatch(context.Background(), lx200.Command(":Q#"))
	if got.Reply != "" {
		t.Fatalf("override must not apply to an empty reply: %q", got.Reply)
	}
}
