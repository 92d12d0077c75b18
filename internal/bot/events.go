package bot

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (b *Bot) logGuildMessage(session *discordgo.Session, msg *discordgo.MessageCreate) {
	channelName := b.channelName(msg.ChannelID)

	if msg.Content != "" && b.textLogChannelID != "" {
		embed := plainEmbed(
			fmt.Sprintf("Message from %s in #%s", msg.Author.Username, channelName),
			"> "+msg.Content,
			colorGreen,
		)
		_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
		b.logger.Info("message",
			zap.String("author", msg.Author.Username),
			zap.String("channel", channelName),
			zap.String("content", msg.Content))
	}

	for _, attachment := range msg.Attachments {
		if attachment == nil || !strings.HasPrefix(attachment.ContentType, "image/") {
			continue
		}
		b.logImageAttachment(session, attachment, msg.Author.Username, channelName)
	}
}

// logImageAttachment forwards an image to the image log channel and keeps a
// copy on disk under a fresh name so uploads with colliding filenames never
// overwrite each other.
func (b *Bot) logImageAttachment(session *discordgo.Session, attachment *discordgo.MessageAttachment, author, channelName string) {
	resp, err := http.Get(attachment.URL)
	if err != nil {
		b.logger.Warn("attachment fetch failed", zap.String("url", attachment.URL), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		b.logger.Warn("attachment read failed", zap.String("url", attachment.URL), zap.Error(err))
		return
	}

	if b.imageLogChannelID != "" {
		_, _ = session.ChannelFileSendWithMessage(
			b.imageLogChannelID,
			fmt.Sprintf("**Image from %s in #%s:**", author, channelName),
			attachment.Filename,
			bytes.NewReader(data),
		)
	}

	imageDir := filepath.Join(b.cfg.DataDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		b.logger.Warn("image dir create failed", zap.Error(err))
		return
	}
	path := filepath.Join(imageDir, uuid.NewString()+" - "+attachment.Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.logger.Warn("image save failed", zap.String("path", path), zap.Error(err))
		return
	}
	b.logger.Info("image saved", zap.String("author", author), zap.String("path", path))
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	defer b.recoverEvent("guild_member_add")
	if event.User == nil {
		return
	}

	guildName, memberCount := b.guildSummary(event.GuildID)
	rulesRef := "the rules channel"
	if b.cfg.Channels.Rules != "" {
		rulesRef = "<#" + b.cfg.Channels.Rules + ">"
	}

	welcome := staffEmbed(
		"Welcome!",
		fmt.Sprintf("> Thank you for joining %s!\n> We're happy to get the chance to chat with you!\n> \n> - Make sure to check out the Rules:\n> %s\n> \n> - Chat and Enjoy our wonderful server", guildName, rulesRef),
		colorGreen,
	)
	b.dmEmbed(event.User.ID, "", welcome)

	if b.cfg.Channels.Welcome != "" {
		embed := &discordgo.MessageEmbed{
			Title: "Welcome to the Server!",
			Description: fmt.Sprintf("> Hey %s, welcome to **%s**!\n> We're so excited to have you here!\n> \n> Please remember to read the Rules in %s.",
				event.User.Mention(), guildName, rulesRef),
			Color:     colorGold,
			Thumbnail: &discordgo.MessageEmbedThumbnail{URL: event.User.AvatarURL("")},
			Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Member #%d", memberCount)},
		}
		_, _ = session.ChannelMessageSendEmbed(b.cfg.Channels.Welcome, embed)
	}

	if b.textLogChannelID != "" {
		embed := &discordgo.MessageEmbed{
			Title:       "Member Joined!",
			Description: fmt.Sprintf("> %s\n> \n> (%s)", event.User.Username, event.User.Mention()),
			Color:       colorOrange,
			Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: event.User.AvatarURL("")},
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Member #%d", memberCount)},
		}
		_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
	}

	b.logger.Info("member joined", zap.String("user", event.User.Username), zap.String("user_id", event.User.ID))
}

func (b *Bot) onGuildMemberRemove(session *discordgo.Session, event *discordgo.GuildMemberRemove) {
	defer b.recoverEvent("guild_member_remove")
	if event.User == nil {
		return
	}

	b.logger.Info("member left", zap.String("user", event.User.Username), zap.String("user_id", event.User.ID))

	if b.textLogChannelID != "" {
		embed := &discordgo.MessageEmbed{
			Title:       "Member Left!",
			Description: "> " + event.User.Username,
			Color:       colorOrange,
			Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: event.User.AvatarURL("")},
		}
		_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
	}
}

// onGuildCreate fires for the home guild at connect and for any guild the
// bot is later added to; only the latter is worth a log entry.
func (b *Bot) onGuildCreate(session *discordgo.Session, event *discordgo.GuildCreate) {
	defer b.recoverEvent("guild_create")
	if event.Guild == nil {
		return
	}
	if event.Guild.ID == b.cfg.GuildID {
		b.logger.Info("home guild available", zap.String("guild", event.Guild.Name))
		return
	}

	b.logger.Info("bot added to guild",
		zap.String("guild", event.Guild.Name),
		zap.String("guild_id", event.Guild.ID),
		zap.Int("members", event.Guild.MemberCount))
	if b.textLogChannelID != "" {
		embed := plainEmbed(
			"Bot added to a Server:",
			fmt.Sprintf("> %s, ID: %s", event.Guild.Name, event.Guild.ID),
			colorBlack,
		)
		_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
	}
}

func (b *Bot) onGuildDelete(session *discordgo.Session, event *discordgo.GuildDelete) {
	defer b.recoverEvent("guild_delete")
	if event.Guild == nil || event.Unavailable {
		return
	}

	b.logger.Info("bot removed from guild", zap.String("guild_id", event.ID))
	if b.textLogChannelID != "" {
		embed := plainEmbed("Bot Removed from Server:", "> ID: "+event.ID, colorBlack)
		_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
	}
}

func (b *Bot) onMessageDelete(session *discordgo.Session, event *discordgo.MessageDelete) {
	defer b.recoverEvent("message_delete")
	if event.GuildID == "" || b.textLogChannelID == "" {
		return
	}

	author := "unknown user"
	content := "(content unavailable)"
	if event.BeforeDelete != nil {
		if event.BeforeDelete.Author != nil {
			author = event.BeforeDelete.Author.Username
		}
		content = event.BeforeDelete.Content
	}
	channelName := b.channelName(event.ChannelID)

	b.logger.Info("message deleted",
		zap.String("author", author),
		zap.String("channel", channelName),
		zap.String("content", content))
	embed := plainEmbed(
		fmt.Sprintf("Message from %s deleted in #%s", author, channelName),
		"> "+content,
		colorRed,
	)
	_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
}

func (b *Bot) onMessageUpdate(session *discordgo.Session, event *discordgo.MessageUpdate) {
	defer b.recoverEvent("message_update")
	if event.GuildID == "" || b.textLogChannelID == "" {
		return
	}
	if event.Author != nil && event.Author.Bot {
		return
	}

	author := "unknown user"
	if event.Author != nil {
		author = event.Author.Username
	}
	before := "(content unavailable)"
	if event.BeforeUpdate != nil {
		before = event.BeforeUpdate.Content
	}
	channelName := b.channelName(event.ChannelID)

	b.logger.Info("message edited",
		zap.String("author", author),
		zap.String("channel", channelName),
		zap.String("before", before),
		zap.String("after", event.Content))
	embed := plainEmbed(
		fmt.Sprintf("Message from %s edited in #%s", author, channelName),
		fmt.Sprintf("> - Before: '%s'\n> - After: '%s'", before, event.Content),
		colorYellow,
	)
	_, _ = session.ChannelMessageSendEmbed(b.textLogChannelID, embed)
}

func (b *Bot) channelName(channelID string) string {
	channel, err := b.session.State.Channel(channelID)
	if err != nil || channel == nil {
		channel, _ = b.session.Channel(channelID)
	}
	if channel == nil {
		return channelID
	}
	return channel.Name
}

func (b *Bot) guildSummary(guildID string) (string, int) {
	guild, err := b.session.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, _ = b.session.Guild(guildID)
	}
	if guild == nil {
		return "the server", 0
	}
	return guild.Name, guild.MemberCount
}
