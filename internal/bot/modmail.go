package bot

import (
	"errors"
	"strings"

	"shedmail/internal/perms"
	"shedmail/internal/ticket"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Button presses arrive as tagged action requests encoded in the component
// custom ID: "<scope>:<kind>:<targetID>". The target is a channel ID for
// modmail actions and a user ID for mute actions.
type action struct {
	scope    string
	kind     string
	targetID string
}

func parseActionID(customID string) (action, bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return action{}, false
	}
	return action{scope: parts[0], kind: parts[1], targetID: parts[2]}, true
}

func actionID(scope, kind, targetID string) string {
	return scope + ":" + kind + ":" + targetID
}

func (b *Bot) handleDirectMessage(session *discordgo.Session, msg *discordgo.MessageCreate) {
	switch strings.ToLower(strings.TrimSpace(msg.Content)) {
	case "contact":
		b.openModmail(session, msg.Author)
	case "help":
		embed := staffEmbed(
			"Hello! I am ShedMail, Your friendly modmail bot!",
			"\n> My job is to allow you to message staff! \n> \n> Simply type the word **'contact'** and the staff will be notified!",
			colorYellow,
		)
		b.dmEmbed(msg.Author.ID, "### "+msg.Author.Mention()+" ShedMail, here to help!", embed)
	default:
		embed := staffEmbed("Unknown Command!", "\n> Type **'help'** for assistance", colorRed)
		b.dmEmbed(msg.Author.ID, "### "+msg.Author.Mention()+" Hmmm...", embed)
	}
}

func (b *Bot) openModmail(session *discordgo.Session, author *discordgo.User) {
	rec, err := b.tickets.Open(author.ID, author.Username, func() (string, error) {
		channel, err := session.GuildChannelCreateComplex(b.cfg.GuildID, discordgo.GuildChannelCreateData{
			Name:                 author.Username,
			Type:                 discordgo.ChannelTypeGuildText,
			Topic:                "Modmail thread for " + author.Username,
			ParentID:             b.cfg.Modmail.CategoryID,
			PermissionOverwrites: b.modmailOverwrites(author.ID),
		})
		if err != nil {
			return "", err
		}

		thread := &discordgo.MessageEmbed{
			Title:       "Modmail Thread",
			Description: "> Modmail initiated by " + author.Mention() + ". \n> \n> Please describe your issue and how we can assist you.",
			Color:       colorBlue,
			Footer:      &discordgo.MessageEmbedFooter{Text: "Use the buttons below to manage this thread"},
		}
		ping := "Come help!"
		if b.cfg.Modmail.StaffMention != "" {
			ping = b.cfg.Modmail.StaffMention + " Come help!"
		}
		_, err = session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Content: "### " + ping,
			Embed:   thread,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Resolved",
							Style:    discordgo.SuccessButton,
							CustomID: actionID("modmail", "resolve", channel.ID),
						},
						discordgo.Button{
							Label:    "Close",
							Style:    discordgo.DangerButton,
							CustomID: actionID("modmail", "close", channel.ID),
						},
					},
				},
			},
		})
		if err != nil {
			b.logger.Warn("modmail staff ping failed", zap.String("channel_id", channel.ID), zap.Error(err))
		}
		return channel.ID, nil
	})

	var already *ticket.AlreadyOpenError
	switch {
	case errors.As(err, &already):
		embed := staffEmbed(
			"ShedMail",
			"> You already have an open modmail, continue the conversation here:\n> \n> <#"+already.ChannelID+">",
			colorYellow,
		)
		b.dmEmbed(author.ID, "### "+author.Mention()+" One at a time!", embed)
	case err != nil:
		b.reportError("modmail_open", err)
		embed := staffEmbed(
			"ShedMail",
			"> Could not create your modmail. Please contact the server administrators.",
			colorRed,
		)
		b.dmEmbed(author.ID, "", embed)
	default:
		embed := staffEmbed(
			"ShedMail",
			"> A modmail has been created, click below to view the ticket:\n> \n> <#"+rec.ChannelID+">",
			colorGreen,
		)
		b.dmEmbed(author.ID, "### "+author.Mention()+" Thank you for reaching out!", embed)
	}
}

// modmailOverwrites denies the channel to everyone, then admits the
// requester and the configured staff roles.
func (b *Bot) modmailOverwrites(requesterID string) []*discordgo.PermissionOverwrite {
	access := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: b.cfg.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: access},
		{ID: requesterID, Type: discordgo.PermissionOverwriteTypeMember, Allow: access},
	}
	for _, roleID := range b.staffRoleIDs() {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: access,
		})
	}
	return overwrites
}

// staffOnlyOverwrites drops the requester: after resolution only staff keep
// access to the thread.
func (b *Bot) staffOnlyOverwrites() []*discordgo.PermissionOverwrite {
	access := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: b.cfg.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: access},
	}
	for _, roleID := range b.staffRoleIDs() {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: access,
		})
	}
	return overwrites
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	defer b.recoverEvent("interaction_create")
	if interaction.Type != discordgo.InteractionMessageComponent {
		return
	}

	act, ok := parseActionID(interaction.MessageComponentData().CustomID)
	if !ok {
		return
	}

	actor := b.actorFor(interaction.GuildID, interaction.Member)
	if !perms.Resolve(actor, perms.Moderator|perms.Administrator, b.roleSets()) {
		b.respondText(session, interaction, "You don't have permission to use this button.", true)
		return
	}

	switch {
	case act.scope == "modmail" && act.kind == "resolve":
		b.handleResolveAction(session, interaction, act.targetID)
	case act.scope == "modmail" && act.kind == "close":
		b.handleCloseAction(session, interaction, act.targetID)
	case act.scope == "mute" && act.kind == "unmute":
		b.handleUnmuteAction(session, interaction, act.targetID)
	}
}

func (b *Bot) handleResolveAction(session *discordgo.Session, interaction *discordgo.InteractionCreate, channelID string) {
	if err := b.tickets.Resolve(channelID); err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			b.respondText(session, interaction, "No modmail ticket is tracked for this channel.", true)
			return
		}
		b.reportError("modmail_resolve", err)
		b.respondText(session, interaction, "Could not resolve this ticket.", true)
		return
	}

	edit := &discordgo.ChannelEdit{PermissionOverwrites: b.staffOnlyOverwrites()}
	if channel, err := session.Channel(channelID); err == nil && channel != nil && !strings.HasPrefix(channel.Name, "(R) ") {
		edit.Name = "(R) " + channel.Name
	}
	_, _ = session.ChannelEditComplex(channelID, edit)

	embed := staffEmbed(
		"Resolved Issue",
		"\n> The issue is now resolved.\n> \n> Only staff have access to the channel now.",
		colorYellow,
	)
	b.respondEmbed(session, interaction, embed, false)
}

func (b *Bot) handleCloseAction(session *discordgo.Session, interaction *discordgo.InteractionCreate, channelID string) {
	embed := staffEmbed("Channel Deletion", "> This channel will be deleted in a few seconds.", colorRed)

	err := b.tickets.Close(channelID, func() {
		if _, err := session.ChannelDelete(channelID); err != nil {
			b.logger.Warn("modmail channel delete failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			b.respondText(session, interaction, "No modmail ticket is tracked for this channel.", true)
			return
		}
		b.reportError("modmail_close", err)
		b.respondText(session, interaction, "Could not close this ticket.", true)
		return
	}

	b.respondEmbed(session, interaction, embed, false)
}

func (b *Bot) respondText(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
