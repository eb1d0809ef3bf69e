package internal

import (
	"context"
	"fmt"
	"time"
)

type commandHandler func(ctx context.Context, args []string, inv *Invocation, buttonLabel string)

// Pipeline runs named commands. Every failure is contained here: scheduled
// task errors and reply delivery errors are logged and never reach the caller.
type Pipeline struct {
	scheduler *Scheduler
	resolver  RankResolver
	replier   Replier
	locale    Localizer
	publisher EventPublisher
	logger    *Logger
	metrics   *MetricsCollector
	handlers  map[string]commandHandler
}

func NewPipeline(scheduler *Scheduler, resolver RankResolver, replier Replier, locale Localizer, publisher EventPublisher, logger *Logger, metrics *MetricsCollector) *Pipeline {
	p := &Pipeline{
		scheduler: scheduler,
		resolver:  resolver,
		replier:   replier,
		locale:    locale,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
	p.handlers = map[string]commandHandler{
		CommandRank: p.rankCommand,
	}
	return p
}

// ExecuteCommand runs the handler registered for name. Unknown names are
// ignored.
func (p *Pipeline) ExecuteCommand(ctx context.Context, name string, args []string, inv *Invocation, buttonLabel string) {
	handler, ok := p.handlers[name]
	if !ok {
		p.logger.Debug("unknown_command_ignored").
			Component("pipeline").
			Operation("execute_command").
			Interaction(inv.ID, inv.UserID, inv.GuildID).
			Meta("command", name).
			Log()
		return
	}
	handler(ctx, args, inv, buttonLabel)
}

func (p *Pipeline) rankCommand(ctx context.Context, args []string, inv *Invocation, buttonLabel string) {
	args = normalizeArgs(args)
	if len(args) == 0 || args[0] == "" {
		return
	}

	id, err := identityFor(inv.Source, args[0])
	if err != nil {
		p.logger.Debug("rank_invalid_identity").
			Component("pipeline").
			Operation("rank").
			Interaction(inv.ID, inv.UserID, inv.GuildID).
			Err(err).
			Log()
		p.deliver(inv, ReplyResult{Text: p.locale.Lookup(KeyInvalidHandle), Kind: ReplyInformational}, buttonLabel)
		return
	}

	p.acknowledge(inv)

	start := time.Now()
	outcome, err := Schedule(ctx, p.scheduler, func(ctx context.Context, api ProviderAPI) (RankOutcome, error) {
		return p.resolver.ResolveRank(ctx, inv, id, api)
	})
	if err != nil {
		p.logger.Warn("rank_task_rejected").
			Component("pipeline").
			Operation("rank").
			Interaction(inv.ID, inv.UserID, inv.GuildID).
			Duration(time.Since(start)).
			Err(err).
			Meta("identity_kind", id.Kind.String()).
			Log()
		return
	}

	reply := ClassifyReply(outcome, p.locale)
	p.deliver(inv, reply, buttonLabel)
	p.publishCompleted(inv, reply, time.Since(start))
}

// normalizeArgs drops the leading element of a multi-part argument list, which
// carries the command name when args come from a raw options array.
func normalizeArgs(args []string) []string {
	if len(args) > 1 {
		return args[1:]
	}
	return args
}

// identityFor maps a raw argument to an identity. Confirmation buttons carry a
// puuid already resolved from the stored player, slash commands a handle.
func identityFor(source InvocationSource, raw string) (Identity, error) {
	if source == SourceConfirmButton {
		return ResolvedHandle(raw), nil
	}
	return ParseRiotHandle(raw)
}

// acknowledge defers the interaction once, ahead of queued provider work. A
// failed acknowledgement leaves delivery to a direct response.
func (p *Pipeline) acknowledge(inv *Invocation) {
	if inv.Deferred {
		return
	}

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("defer panicked: %v", r)
		}
		if err != nil {
			p.logger.Warn("interaction_defer_failed").
				Component("pipeline").
				Operation("acknowledge").
				Interaction(inv.ID, inv.UserID, inv.GuildID).
				Err(err).
				Log()
		}
	}()
	err = p.replier.Defer(inv)
}

// deliver sends reply best-effort. An empty reply sends nothing.
func (p *Pipeline) deliver(inv *Invocation, reply ReplyResult, buttonLabel string) {
	if reply.Kind == ReplyNone || reply.Text == "" {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.replyFailed(inv, fmt.Errorf("reply panicked: %v", r))
		}
	}()

	p.metrics.RecordReply(reply.Kind)
	if err := p.replier.Reply(inv, reply, buttonLabel); err != nil {
		p.replyFailed(inv, err)
	}
}

func (p *Pipeline) replyFailed(inv *Invocation, err error) {
	p.metrics.RecordReplyFailure()
	p.logger.Error("reply_delivery_failed").
		Component("pipeline").
		Operation("deliver").
		Interaction(inv.ID, inv.UserID, inv.GuildID).
		Err(err).
		Log()
}

func (p *Pipeline) publishCompleted(inv *Invocation, reply ReplyResult, d time.Duration) {
	if p.publisher == nil {
		return
	}
	evt := RankCompletedEvent{
		InvocationID: inv.ID,
		UserID:       inv.UserID,
		GuildID:      inv.GuildID,
		ReplyKind:    reply.Kind.String(),
		DurationMS:   d.Milliseconds(),
		CompletedAt:  time.Now().UTC(),
	}
	if err := p.publisher.PublishRankCompleted(evt); err != nil {
		p.logger.Warn("rank_event_publish_failed").
			Component("pipeline").
			Operation("publish").
			Interaction(inv.ID, inv.UserID, inv.GuildID).
			Err(err).
			Log()
	}
}
