package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"xerobot/internal/command"
	"xerobot/internal/config"
	"xerobot/internal/keepalive"
	"xerobot/internal/music/player"
	"xerobot/internal/music/resolver"
	"xerobot/internal/reputation"
	"xerobot/pkg/jobmgr"
)

// Bot is the Discord front of the system: it feeds every message into
// the reputation ledger, routes prefix commands into the playback
// coordinator, and owns the background timers.
type Bot struct {
	dg          *discordgo.Session
	cfg         *config.Config
	ledger      *reputation.Ledger
	coordinator *player.Coordinator
	jobs        *jobmgr.Manager
	deps        *command.Deps

	presenceIndex atomic.Uint32
	runCtx        context.Context
}

// NewBot builds the session and the playback coordinator. The session
// is not opened until Run.
func NewBot(cfg *config.Config, ledger *reputation.Ledger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		dg:     dg,
		cfg:    cfg,
		ledger: ledger,
		jobs: jobmgr.NewManager(func(msg string) {
			log.Println("[INFO] Job:", msg)
		}),
	}

	b.coordinator = player.NewCoordinator(
		resolver.NewSourceResolver(cfg.YouTubeProxy),
		&voiceDialer{dg: dg},
		func() {
			// Emergency save after a recovered fault in the work loop.
			if err := ledger.Flush(); err != nil {
				log.Printf("[ERR] Emergency ledger save failed: %v", err)
			}
		},
	)

	b.deps = &command.Deps{
		Ledger:      ledger,
		Coordinator: b.coordinator,
		Voice:       b,
	}

	return b, nil
}

// Coordinator exposes the playback coordinator, mainly for wiring and
// tests.
func (b *Bot) Coordinator() *player.Coordinator { return b.coordinator }

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.runCtx = ctx

	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onDisconnect)

	go b.coordinator.Run(ctx)
	go keepalive.RunServer(ctx, b.cfg.KeepAliveAddr)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	b.jobs.StopAll()
	b.coordinator.Close()
	return nil
}

// configureIntents configures the Discord intents.
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent
}

// onReady is called when the gateway session becomes ready. It fires
// again on every reconnect, so everything it starts sits behind the
// job manager's duplicate-start guard.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}

	b.setInitialPresence()
	b.startBackgroundJobs()

	log.Printf("[INFO] ✅ Discord bot %v is running on %d guild(s).", botInfo.Username, len(r.Guilds))
}

// onDisconnect triggers an immediate ledger save; the gateway may be
// gone for a while.
func (b *Bot) onDisconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	log.Println("[WARN] Gateway disconnected, saving ledger...")
	if err := b.ledger.Flush(); err != nil {
		log.Printf("[ERR] Ledger save on disconnect failed: %v", err)
	}
}

// onMessageCreate awards reputation for every user message and
// dispatches prefix commands.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	b.ledger.OnMessage(m.Author.ID, len(m.Content), time.Now())

	name, args, ok := parsePrefix(m.Content, b.cfg.CommandPrefix)
	if !ok {
		return
	}

	cmd, ok := command.Get(name)
	if !ok {
		return
	}

	ctx := &command.Context{
		Ctx:     b.runCtx,
		Session: s,
		Message: m,
		Args:    args,
		Deps:    b.deps,
	}

	if cmd.RequireAdmin() && !ctx.IsAdmin() {
		_ = ctx.Reply("🚫 This command requires administrator permission.")
		return
	}

	if err := cmd.Run(ctx); err != nil {
		log.Printf("[ERR] Error running command %s: %v", cmd.Name(), err)
		_ = ctx.Reply(fmt.Sprintf("❌ Error running command: %v", err))
	}
}

// FindUserVoiceState finds the voice channel a user currently sits in.
func (b *Bot) FindUserVoiceState(guildID, userID string) (string, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}
	return "", fmt.Errorf("user not in any voice channel")
}

// parsePrefix splits "<prefix><name> <args...>" into its parts.
func parsePrefix(content, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
