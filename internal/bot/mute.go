package bot

import (
	"fmt"
	"strings"
	"time"

	"shedmail/internal/ticket"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type stopTimer struct{ t *time.Timer }

func (t stopTimer) Stop() bool { return t.t.Stop() }

func newStopTimer(d time.Duration, f func()) ticket.Timer {
	return stopTimer{t: time.AfterFunc(d, f)}
}

func (b *Bot) cmdMute(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	if b.cfg.Roles.Muted == "" {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" No muted role is configured.")
		return
	}
	target := b.mentionedUser(msg)
	if target == nil {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Mention the member to mute.")
		return
	}
	duration, err := parseMuteDuration(args[1])
	if err != nil {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Could not read that duration. Try `10m` or `1h`.")
		return
	}
	reason := strings.Join(args[2:], " ")

	if err := session.GuildMemberRoleAdd(msg.GuildID, target.ID, b.cfg.Roles.Muted); err != nil {
		b.logger.Warn("mute refused", zap.String("target_id", target.ID), zap.Error(err))
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Could not mute that member. They may outrank the bot.")
		return
	}
	b.scheduleUnmute(msg.GuildID, target.ID, duration)
	b.logger.Info("member muted",
		zap.String("target_id", target.ID),
		zap.String("issued_by", msg.Author.ID),
		zap.Duration("duration", duration),
		zap.String("reason", reason))

	embed := staffEmbed(
		"Member Muted",
		fmt.Sprintf("> %s was muted by %s for %s.\n> Reason: %s",
			target.Mention(), msg.Author.Mention(), duration, reason),
		colorOrange,
	)
	_, _ = session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Embed: embed,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Unmute",
						Style:    discordgo.SecondaryButton,
						CustomID: actionID("mute", "unmute", target.ID),
					},
				},
			},
		},
	})
}

// scheduleUnmute arms a timer to lift the mute. A second mute for the same
// member replaces the pending timer. Timers do not survive a restart.
func (b *Bot) scheduleUnmute(guildID, userID string, duration time.Duration) {
	b.muteMu.Lock()
	if timer := b.muteTimers[userID]; timer != nil {
		timer.Stop()
	}
	b.muteTimers[userID] = newStopTimer(duration, func() {
		b.liftMute(guildID, userID)
	})
	b.muteMu.Unlock()
}

func (b *Bot) liftMute(guildID, userID string) {
	b.muteMu.Lock()
	delete(b.muteTimers, userID)
	b.muteMu.Unlock()

	if err := b.session.GuildMemberRoleRemove(guildID, userID, b.cfg.Roles.Muted); err != nil {
		b.logger.Warn("unmute failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	b.logger.Info("member unmuted", zap.String("user_id", userID))
}

func (b *Bot) handleUnmuteAction(session *discordgo.Session, interaction *discordgo.InteractionCreate, userID string) {
	b.liftMute(interaction.GuildID, userID)
	b.respondText(session, interaction, "<@"+userID+"> has been unmuted.", false)
}
