package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type recordingRegistrar struct {
	appIDs []string
	err    error
}

func (r *recordingRegistrar) Register(appID string) error {
	r.appIDs = append(r.appIDs, appID)
	return r.err
}

type routerFixture struct {
	router    *EventRouter
	session   *fakeSession
	store     *memoryStore
	provider  *fakeProvider
	resolver  *stubResolver
	replier   *recordingReplier
	roles     *recordingRoles
	registrar *recordingRegistrar
}

func newRouterFixture(players ...*Player) *routerFixture {
	logger := createTestLogger()
	metrics := NewMetricsCollector(logger)
	f := &routerFixture{
		session: &fakeSession{},
		store:   newMemoryStore(players...),
		provider: &fakeProvider{accounts: map[string]ProviderResponse{
			"p-1": ProviderResponse(`{"id":"s-1","puuid":"p-1"}`),
		}},
		resolver:  &stubResolver{outcome: RankOutcome{Text: "Faker#KR1 is Gold II"}},
		replier:   &recordingReplier{},
		roles:     &recordingRoles{},
		registrar: &recordingRegistrar{},
	}
	scheduler := NewScheduler(SchedulerOptions{MaxConcurrent: 1}, f.provider, logger, metrics)
	pipeline := NewPipeline(scheduler, f.resolver, f.replier, DefaultStringTable(), noopPublisher{}, logger, metrics)
	f.router = NewEventRouter(&Config{BotStatus: "/rank"}, f.session, scheduler, f.store, pipeline, DefaultStringTable(), f.roles, f.registrar, logger)
	return f
}

func TestEventRouter_HandleReadyRunsOnce(t *testing.T) {
	f := newRouterFixture()
	ready := &discordgo.Ready{
		User:        &discordgo.User{ID: "bot-1"},
		Application: &discordgo.Application{ID: "app-1"},
	}

	f.router.HandleReady(context.Background(), ready)
	f.router.HandleReady(context.Background(), ready)

	if len(f.session.statuses) != 1 || f.session.statuses[0] != "/rank" {
		t.Errorf("expected one status update, got %v", f.session.statuses)
	}
	if f.roles.inits != 1 {
		t.Errorf("expected roles initialized once, got %d", f.roles.inits)
	}
	if len(f.registrar.appIDs) != 1 || f.registrar.appIDs[0] != "app-1" {
		t.Errorf("expected registration for app-1, got %v", f.registrar.appIDs)
	}
}

func TestEventRouter_HandleReadyFallsBackToUserID(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleReady(context.Background(), &discordgo.Ready{User: &discordgo.User{ID: "bot-1"}})

	if len(f.registrar.appIDs) != 1 || f.registrar.appIDs[0] != "bot-1" {
		t.Errorf("expected registration for bot-1, got %v", f.registrar.appIDs)
	}
}

func TestEventRouter_HandleReadyFailureIsNotRetried(t *testing.T) {
	f := newRouterFixture()
	f.registrar.err = errors.New("missing access")
	ready := &discordgo.Ready{Application: &discordgo.Application{ID: "app-1"}}

	f.router.HandleReady(context.Background(), ready)
	f.router.HandleReady(context.Background(), ready)

	if len(f.registrar.appIDs) != 1 {
		t.Errorf("a failed initialization should not be retried, got %d attempts", len(f.registrar.appIDs))
	}
}

func TestEventRouter_SlashCommand(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleInteraction(context.Background(), &discordgo.InteractionCreate{Interaction: rankCommandInteraction("u-1", "Faker#KR1")})

	if len(f.resolver.seen) != 1 || f.resolver.seen[0].GameName != "Faker" {
		t.Fatalf("expected the handle to reach the resolver, got %+v", f.resolver.seen)
	}
	if f.replier.count() != 1 || f.replier.labels[0] != "Confirm" {
		t.Errorf("expected one reply with the confirm label, got %+v", f.replier.labels)
	}
}

func TestEventRouter_ConfirmButton(t *testing.T) {
	f := newRouterFixture(&Player{DiscordID: "u-1", PUUID: "p-1"})

	f.router.HandleInteraction(context.Background(), &discordgo.InteractionCreate{Interaction: confirmButtonInteraction("u-1", "Confirm")})

	if len(f.provider.resolveCalls) != 1 || f.provider.resolveCalls[0].Kind != KindPlayerRecord {
		t.Fatalf("expected one player-record resolution, got %+v", f.provider.resolveCalls)
	}
	if len(f.resolver.seen) != 1 {
		t.Fatalf("expected one rank resolution, got %d", len(f.resolver.seen))
	}
	if id := f.resolver.seen[0]; !id.Resolved() || id.PUUID != "p-1" {
		t.Errorf("expected resolved handle p-1, got %+v", id)
	}
	if f.replier.defers != 1 {
		t.Errorf("the confirm flow should acknowledge once, got %d", f.replier.defers)
	}
}

func TestEventRouter_ConfirmWithoutStoredPlayer(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleInteraction(context.Background(), &discordgo.InteractionCreate{Interaction: confirmButtonInteraction("u-2", "Confirm")})

	if len(f.provider.resolveCalls) != 0 {
		t.Error("no provider call expected without a stored player")
	}
	if f.replier.count() != 1 || f.replier.replies[0].Text != defaultStrings[KeyPlayerNotFound] {
		t.Errorf("expected the player-not-found reply, got %+v", f.replier.replies)
	}
}

func TestEventRouter_ConfirmResolutionFailure(t *testing.T) {
	f := newRouterFixture(&Player{DiscordID: "u-1", PUUID: "p-unknown"})

	f.router.HandleInteraction(context.Background(), &discordgo.InteractionCreate{Interaction: confirmButtonInteraction("u-1", "Confirm")})

	if len(f.resolver.seen) != 0 || f.replier.count() != 0 {
		t.Error("a failed resolution should stop the flow silently")
	}
}

func TestEventRouter_IgnoresOtherInteractions(t *testing.T) {
	f := newRouterFixture(&Player{DiscordID: "u-1", PUUID: "p-1"})

	f.router.HandleInteraction(context.Background(), &discordgo.InteractionCreate{Interaction: confirmButtonInteraction("u-1", "Cancel")})
	f.router.HandleInteraction(context.Background(), &discordgo.InteractionCreate{})
	f.router.HandleInteraction(context.Background(), nil)

	if len(f.provider.resolveCalls) != 0 || f.replier.count() != 0 {
		t.Error("unrelated interactions should be ignored")
	}
}
