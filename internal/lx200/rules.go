package lx200

import (
	"bytes"
	"strings"
)

// Matcher selects the commands a rule applies to.
type Matcher interface {
	Match(Command) bool
}

// Exact matches one literal command.
type Exact string

func (e Exact) Match(c Command) bool { return string(c) == string(e) }

// Prefix matches every command starting with the literal.
type Prefix string

func (p Prefix) Match(c Command) bool { return strings.HasPrefix(string(c), string(p)) }

// OutgoingRule rewrites a command before it reaches the controller.
type OutgoingRule struct {
	Name    string
	Match   Matcher
	Rewrite func(Command) Command
}

// IncomingRule replaces a non-empty controller reply.
type IncomingRule struct {
	Name  string
	Match Matcher
	Reply string
}

// Identity holds the product strings answered without the controller.
type Identity struct {
	Product         string
	FirmwareVersion string
	FirmwareDate    string
	FirmwareTime    string
}

func DefaultIdentity() Identity {
	return Identity{
		Product:         "On-Step",
		FirmwareVersion: "2.0",
		FirmwareDate:    "May 2025",
		FirmwareTime:    "08:02:00",
	}
}

// Rules is the read-only quirk table consulted by the dispatcher.
type Rules struct {
	LocalAnswers map[string]string
	NoResponse   map[string]struct{}
	Outgoing     []OutgoingRule
	Incoming     []IncomingRule
}

// SitePlanetaryReply is what Stellarium expects after a set-date command.
const SitePlanetaryReply = "1Updating Planetary Data#          #"

// NoResponseCommands never produce a client-visible reply.
var NoResponseCommands = []string{
	":Me#", ":Mn#", ":Ms#", ":Mw#", // move
	":Qe#", ":Qn#", ":Qs#", ":Qw#", // stop axis
	":RC#", ":RF#", ":RG#", ":RM#", ":RS#", // slew rate
	":W1#", // site select
	":CS#", // sync
}

func DefaultRules() Rules {
	return NewRules(DefaultIdentity())
}

func NewRules(id Identity) Rules {
	noResp := make(map[string]struct{}, len(NoResponseCommands))
	for _, c := range NoResponseCommands {
		noResp[c] = struct{}{}
	}
	return Rules{
		LocalAnswers: map[string]string{
			":GVP#": id.Product + "#",
			":GVN#": id.FirmwareVersion + "#",
			":GVD#": id.FirmwareDate + "#",
			":GVT#": id.FirmwareTime + "#",
		},
		NoResponse: noResp,
		Outgoing: []OutgoingRule{
			{Name: "timezone-fraction", Match: Exact(":SG+06.0#"), Rewrite: TruncateFraction},
		},
		Incoming: []IncomingRule{
			{Name: "set-date", Match: Prefix(":SC"), Reply: SitePlanetaryReply},
			{Name: "abort", Match: Exact(":Q#"), Reply: "1"},
		},
	}
}

// LocalAnswer returns the fixed reply for identification commands.
func (r Rules) LocalAnswer(c Command) (string, bool) {
	reply, ok := r.LocalAnswers[string(c)]
	return reply, ok
}

func (r Rules) IsNoResponse(c Command) bool {
	_, ok := r.NoResponse[string(c)]
	return ok
}

// RewriteOutgoing applies the first matching outgoing rule.
func (r Rules) RewriteOutgoing(c Command) Command {
	for _, rule := range r.Outgoing {
		if rule.Match.Match(c) {
			return rule.Rewrite(c)
		}
	}
	return c
}

// OverrideIncoming applies the first matching incoming rule to a non-empty reply.
func (r Rules) OverrideIncoming(c Command, reply string) string {
	if reply == "" {
		return reply
	}
	for _, rule := range r.Incoming {
		if rule.Match.Match(c) {
			return rule.Reply
		}
	}
	return reply
}

// TruncateFraction removes everything from the first '.' up to the end
// marker, so ":SG+06.0#" becomes ":SG+06#".
func TruncateFraction(c Command) Command {
	dot := bytes.IndexByte(c, '.')
	hash := bytes.IndexByte(c, EndMarker)
	if dot < 0 || hash < 0 || dot > hash {
		return c
	}
	out := make(Command, 0, len(c)-(hash-dot))
	out = append(out, c[:dot]...)
	return append(out, c[hash:]...)
}

// CompressBoolean drops the terminator from "0#" and "1#".
func CompressBoolean(reply string) string {
	if reply == "0#" || reply == "1#" {
		return reply[:1]
	}
	return reply
}
