package bridge

import (
	"context"

	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/observability"
	"github.com/rs/zerolog/log"
)

// Forwarder sends one command to the mount controller.
type Forwarder interface {
	Forward(ctx context.Context, cmd lx200.Command, expectReply bool) (string, error)
}

// Dispatcher resolves each framed command to exactly one Outcome.
type Dispatcher struct {
	rules lx200.Rules
	link  Forwarder
}

func NewDispatcher(rules lx200.Rules, link Forwarder) *Dispatcher {
	return &Dispatcher{rules: rules, link: link}
}

// Dispatch answers identification commands locally, forwards no-response
// commands without waiting, and forwards everything else, applying the
// outgoing rewrite before and the reply overrides after the link. Every
// final reply, local or forwarded, goes through boolean compression.
// Link errors degrade to an empty reply.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd lx200.Command) lx200.Outcome {
	if reply, ok := d.rules.LocalAnswer(cmd); ok {
		return d.done(cmd, lx200.Outcome{Kind: lx200.LocalAnswer, Reply: lx200.CompressBoolean(reply)})
	}

	out := d.rules.RewriteOutgoing(cmd)
	if d.rules.IsNoResponse(cmd) {
		if _, err := d.link.Forward(ctx, out, false); err != nil {
			log.Error().Err(err).Str("cmd", cmd.String()).Msg("bridge.Dispatch forward failed")
		}
		return d.done(cmd, lx200.Outcome{Kind: lx200.Suppressed})
	}

	reply, err := d.link.Forward(ctx, out, true)
	if err != nil {
		log.Error().Err(err).Str("cmd", cmd.String()).Msg("bridge.Dispatch forward failed")
		reply = ""
	}
	reply = d.rules.OverrideIncoming(cmd, reply)
	reply = lx200.CompressBoolean(reply)
	return d.done(cmd, lx200.Outcome{Kind: lx200.Forwarded, Reply: reply})
}

func (d *Dispatcher) done(cmd lx200.Command, o lx200.Outcome) lx200.Outcome {
	observability.RecordCommand(o.Kind.String())
	log.Debug().
		Str("cmd", lx200.PrintableString(cmd.String())).
		Str("outcome", o.Kind.String()).
		Str("reply", lx200.PrintableString(o.Reply)).
		Msg("bridge.Dispatch")
	return o
}
