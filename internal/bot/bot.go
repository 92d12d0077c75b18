package bot

import (
	"context"
	"strings"
	"sync"

	"shedmail/internal/config"
	"shedmail/internal/perms"
	"shedmail/internal/store"
	"shedmail/internal/ticket"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	Version     = "2.0.0"
	VersionDate = "August 2025"
)

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	session  *discordgo.Session
	tickets  *ticket.Manager
	warnings *store.WarningStore
	bans     *store.BanStore

	// Log channel handles, validated once in onReady.
	textLogChannelID  string
	imageLogChannelID string

	topicMu    sync.Mutex
	topicIndex int

	muteMu     sync.Mutex
	muteTimers map[string]ticket.Timer

	restartCh   chan struct{}
	restartOnce sync.Once
}

func New(cfg config.Config, logger *zap.Logger, tickets *ticket.Manager, warnings *store.WarningStore, bans *store.BanStore) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	session.State.MaxMessageCount = 500

	return &Bot{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		tickets:    tickets,
		warnings:   warnings,
		bans:       bans,
		muteTimers: make(map[string]ticket.Timer),
		restartCh:  make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageDelete)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onInteractionCreate)

	return b.session.Open()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

// RestartRequests signals when an administrator ran the restart command. The
// caller treats it like a shutdown signal; the supervisor brings us back.
func (b *Bot) RestartRequests() <-chan struct{} {
	return b.restartCh
}

func (b *Bot) requestRestart() {
	b.restartOnce.Do(func() { close(b.restartCh) })
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	_ = session.UpdateListeningStatus("ModMail")

	b.textLogChannelID = b.cfg.Channels.TextLog
	b.imageLogChannelID = b.cfg.Channels.ImageLog
	if b.textLogChannelID != "" {
		if _, err := session.Channel(b.textLogChannelID); err != nil {
			b.logger.Warn("text log channel not reachable", zap.String("channel_id", b.textLogChannelID), zap.Error(err))
		}
	}
	if b.imageLogChannelID != "" {
		if _, err := session.Channel(b.imageLogChannelID); err != nil {
			b.logger.Warn("image log channel not reachable", zap.String("channel_id", b.imageLogChannelID), zap.Error(err))
		}
	}

	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	defer b.recoverEvent("message_create")
	if msg.Author == nil || msg.Author.Bot {
		return
	}

	if msg.GuildID == "" {
		b.handleDirectMessage(session, msg)
		return
	}

	b.logGuildMessage(session, msg)

	if strings.HasPrefix(msg.Content, b.cfg.Prefix) {
		b.handleCommand(session, msg)
	}
}

// recoverEvent is the broadest handler boundary: a panic in one event is
// logged and reported, and the event is dropped. The process keeps serving.
func (b *Bot) recoverEvent(event string) {
	r := recover()
	if r == nil {
		return
	}
	b.logger.Error("event handler panic", zap.String("event", event), zap.Any("panic", r))
	if b.textLogChannelID != "" {
		embed := staffEmbed("Error in "+event, "> An unexpected error occurred; the event was dropped.", colorDarkRed)
		_, _ = b.session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
	}
}

func (b *Bot) reportError(event string, err error) {
	b.logger.Error("event handler error", zap.String("event", event), zap.Error(err))
	if b.textLogChannelID != "" {
		embed := staffEmbed("Error in "+event, "> "+err.Error(), colorDarkRed)
		_, _ = b.session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
	}
}

func (b *Bot) roleSets() perms.RoleSets {
	return perms.RoleSets{
		Moderator: b.cfg.Roles.Moderator,
		Admin:     b.cfg.Roles.Admin,
		Servicer:  b.cfg.Roles.Servicer,
	}
}

func (b *Bot) actorFor(guildID string, member *discordgo.Member) perms.Actor {
	if member == nil {
		return perms.Actor{}
	}
	return perms.Actor{
		RoleIDs: member.Roles,
		IsAdmin: b.memberHasAdmin(guildID, member),
	}
}

func (b *Bot) memberHasAdmin(guildID string, member *discordgo.Member) bool {
	guild, err := b.session.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, _ = b.session.Guild(guildID)
	}
	if guild == nil {
		return false
	}
	if member.User != nil && guild.OwnerID == member.User.ID {
		return true
	}

	perms64 := int64(0)
	roleMap := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roleMap[role.ID] = role
		if role.ID == guild.ID {
			perms64 |= role.Permissions
		}
	}
	for _, roleID := range member.Roles {
		if role := roleMap[roleID]; role != nil {
			perms64 |= role.Permissions
		}
	}
	return perms64&discordgo.PermissionAdministrator != 0
}

// staffRoleIDs is every configured staff role, moderators first.
func (b *Bot) staffRoleIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range [][]string{b.cfg.Roles.Moderator, b.cfg.Roles.Admin, b.cfg.Roles.Servicer} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// dmEmbed delivers a direct message best effort: a user with DMs disabled
// must not abort the surrounding flow.
func (b *Bot) dmEmbed(userID, content string, embed *discordgo.MessageEmbed) {
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		b.logger.Info("direct message refused", zap.String("user_id", userID), zap.Error(err))
		return
	}
	_, err = b.session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content: content,
		Embed:   embed,
	})
	if err != nil {
		b.logger.Info("direct message refused", zap.String("user_id", userID), zap.Error(err))
	}
}
