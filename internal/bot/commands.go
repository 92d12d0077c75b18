package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shedmail/internal/perms"
	"shedmail/internal/store"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const noticeTTL = 5 * time.Second

type command struct {
	tier    perms.Tier
	minArgs int
	usage   string
	run     func(b *Bot, s *discordgo.Session, m *discordgo.MessageCreate, args []string)
}

var commands = map[string]command{
	"help":  {tier: perms.Everyone, run: (*Bot).cmdHelp},
	"topic": {tier: perms.Everyone, run: (*Bot).cmdTopic},
	"slap":  {tier: perms.Everyone, minArgs: 1, usage: "slap <user>", run: (*Bot).cmdSlap},

	"activity": {tier: perms.Moderator | perms.Administrator, run: (*Bot).cmdActivity},
	"version":  {tier: perms.Moderator | perms.Administrator, run: (*Bot).cmdVersion},
	"member":   {tier: perms.Moderator | perms.Administrator, usage: "member [user]", run: (*Bot).cmdMember},
	"say":      {tier: perms.Moderator | perms.Administrator, minArgs: 1, usage: "say <text>", run: (*Bot).cmdSay},
	"warn":     {tier: perms.Moderator | perms.Administrator, minArgs: 2, usage: "warn <user> <reason>", run: (*Bot).cmdWarn},
	"warns":    {tier: perms.Moderator | perms.Administrator, usage: "warns [user]", run: (*Bot).cmdWarns},
	"mute":     {tier: perms.Moderator | perms.Administrator, minArgs: 3, usage: "mute <user> <duration> <reason>", run: (*Bot).cmdMute},
	"bans":     {tier: perms.Moderator | perms.Administrator, usage: "bans [query]", run: (*Bot).cmdBans},

	"ban":     {tier: perms.Administrator, minArgs: 2, usage: "ban <user> <reason>", run: (*Bot).cmdBan},
	"restart": {tier: perms.Administrator, run: (*Bot).cmdRestart},
	"ping":    {tier: perms.Administrator, run: (*Bot).cmdPing},
}

func (b *Bot) handleCommand(session *discordgo.Session, msg *discordgo.MessageCreate) {
	fields := strings.Fields(strings.TrimPrefix(msg.Content, b.cfg.Prefix))
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, ok := commands[name]
	if !ok {
		return
	}

	// The invoking message goes first, regardless of outcome.
	_ = session.ChannelMessageDelete(msg.ChannelID, msg.ID)

	actor := b.actorFor(msg.GuildID, msg.Member)
	if !perms.Resolve(actor, cmd.tier, b.roleSets()) {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" You don't have permission to run this command.")
		return
	}
	if len(args) < cmd.minArgs {
		b.sendTemp(msg.ChannelID, fmt.Sprintf("%s Usage: `%s%s`", msg.Author.Mention(), b.cfg.Prefix, cmd.usage))
		return
	}

	cmd.run(b, session, msg, args)
}

// sendTemp posts a notice that removes itself shortly after.
func (b *Bot) sendTemp(channelID, content string) {
	msg, err := b.session.ChannelMessageSend(channelID, content)
	if err != nil || msg == nil {
		return
	}
	time.AfterFunc(noticeTTL, func() {
		_ = b.session.ChannelMessageDelete(channelID, msg.ID)
	})
}

func (b *Bot) mentionedUser(msg *discordgo.MessageCreate) *discordgo.User {
	if len(msg.Mentions) == 0 {
		return nil
	}
	return msg.Mentions[0]
}

func (b *Bot) cmdHelp(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	p := b.cfg.Prefix
	embed := staffEmbed(
		"ShedMail Commands",
		fmt.Sprintf("> **%shelp**, **%stopic**, **%sslap <user>** - for everyone\n"+
			"> **%sactivity**, **%sversion**, **%smember [user]**, **%ssay <text>**, **%swarn <user> <reason>**, **%swarns [user]**, **%smute <user> <duration> <reason>**, **%sbans [query]** - for staff\n"+
			"> **%sban <user> <reason>**, **%srestart**, **%sping** - for administrators\n> \n"+
			"> DM me **'contact'** to open a modmail ticket!",
			p, p, p, p, p, p, p, p, p, p, p, p, p, p),
		colorBlue,
	)
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

func (b *Bot) cmdTopic(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	topics, err := b.loadTopics()
	if err != nil || len(topics) == 0 {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" No topics are configured.")
		return
	}

	index, wrapped := b.nextTopicIndex(len(topics))
	if wrapped {
		_, _ = session.ChannelMessageSend(msg.ChannelID, "All topics have been discussed! Restarting...")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Let's Talk About...",
		Description: fmt.Sprintf(" \n> **%s**\n", topics[index]),
		Color:       colorGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Enjoy the discussion!"},
	}
	_, _ = session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: "### Let's Yap!",
		Embed:   embed,
	})
}

// nextTopicIndex advances the rotating topic cursor. wrapped reports that
// the list was exhausted; the cursor resets and no topic is served this turn.
func (b *Bot) nextTopicIndex(total int) (int, bool) {
	b.topicMu.Lock()
	defer b.topicMu.Unlock()
	if b.topicIndex >= total {
		b.topicIndex = 0
		return 0, true
	}
	index := b.topicIndex
	b.topicIndex++
	return index, false
}

func (b *Bot) cmdSlap(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	target := b.mentionedUser(msg)
	if target == nil {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Mention someone to slap.")
		return
	}
	gif := b.randomSlapGIF()

	embed := &discordgo.MessageEmbed{
		Title:       "Slap!",
		Description: fmt.Sprintf("\n> **%s slapped %s!**\n", msg.Author.Mention(), target.Mention()),
		Color:       colorRed,
	}
	if gif != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: gif}
	}
	_, _ = session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: "### " + target.Mention() + " Got Slapped!",
		Embed:   embed,
	})
}

func (b *Bot) cmdActivity(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	if b.cfg.Roles.ActivityPing == "" {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" No activity ping role is configured.")
		return
	}
	embed := staffEmbed(
		"Activity Check!",
		"> The chat has been quiet, come say hello!",
		colorGold,
	)
	_, _ = session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: "### <@&" + b.cfg.Roles.ActivityPing + "> Let's get chatting!",
		Embed:   embed,
	})
}

func (b *Bot) cmdVersion(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	embed := plainEmbed(
		"Version",
		fmt.Sprintf("> You are currently using %s\n> \n> Released on %s", Version, VersionDate),
		colorFuchsia,
	)
	msgSent, err := session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: "### " + msg.Author.Mention() + " Version and Support:",
		Embed:   embed,
	})
	if err == nil && msgSent != nil {
		time.AfterFunc(10*time.Second, func() {
			_ = session.ChannelMessageDelete(msg.ChannelID, msgSent.ID)
		})
	}
}

func (b *Bot) cmdMember(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	target := b.mentionedUser(msg)
	if target == nil {
		target = msg.Author
	}
	member, err := session.GuildMember(msg.GuildID, target.ID)
	if err != nil || member == nil {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Could not look up that member.")
		return
	}

	joined := "unknown"
	if !member.JoinedAt.IsZero() {
		joined = member.JoinedAt.Format("January 2, 2006")
	}
	embed := &discordgo.MessageEmbed{
		Title: "Member: " + target.Username,
		Description: fmt.Sprintf("> ID: %s\n> Joined: %s\n> Roles: %d",
			target.ID, joined, len(member.Roles)),
		Color:     colorBlue,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("")},
	}
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

func (b *Bot) cmdSay(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	_, _ = session.ChannelMessageSend(msg.ChannelID, strings.Join(args, " "))
}

func (b *Bot) cmdWarn(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	target := b.mentionedUser(msg)
	if target == nil {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Mention the member to warn.")
		return
	}
	reason := strings.Join(args[1:], " ")

	rec := store.WarningRecord{
		ID:         uuid.NewString(),
		WarnedBy:   msg.Author.Username,
		WarnedByID: msg.Author.ID,
		Reason:     reason,
		Date:       time.Now(),
	}
	if err := b.warnings.Add(target.ID, rec); err != nil {
		b.reportError("warn", err)
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Could not record the warning.")
		return
	}
	b.logger.Info("warning issued",
		zap.String("target_id", target.ID),
		zap.String("issued_by", msg.Author.ID),
		zap.String("reason", reason))

	dm := staffEmbed(
		"You have been warned",
		fmt.Sprintf("> Reason: %s\n> \n> Please review the server rules.", reason),
		colorRed,
	)
	b.dmEmbed(target.ID, "", dm)

	total := len(b.warnings.List(target.ID))
	embed := staffEmbed(
		"Member Warned",
		fmt.Sprintf("> %s was warned by %s.\n> Reason: %s\n> \n> Total warnings: %d",
			target.Mention(), msg.Author.Mention(), reason, total),
		colorOrange,
	)
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

func (b *Bot) cmdWarns(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	target := b.mentionedUser(msg)
	if target == nil {
		target = msg.Author
	}

	records := b.warnings.List(target.ID)
	if len(records) == 0 {
		b.sendTemp(msg.ChannelID, fmt.Sprintf("%s %s has no warnings.", msg.Author.Mention(), target.Username))
		return
	}

	lines := make([]string, 0, len(records))
	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("> %d. %s - by %s on %s",
			i+1, rec.Reason, rec.WarnedBy, rec.Date.Format("January 2, 2006")))
	}
	embed := plainEmbed(
		fmt.Sprintf("Warnings for %s (%d)", target.Username, len(records)),
		strings.Join(lines, "\n"),
		colorOrange,
	)
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

func (b *Bot) cmdBans(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	query := strings.Join(args, " ")
	records := b.bans.Search(query)
	if len(records) == 0 {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" No matching ban records.")
		return
	}
	if len(records) > 10 {
		records = records[:10]
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("> **%s** (%s) - %s - by %s on %s",
			rec.User, rec.UserID, rec.Reason, rec.BannedBy, rec.Date.Format("January 2, 2006")))
	}
	embed := plainEmbed("Ban Records", strings.Join(lines, "\n"), colorDarkRed)
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

func (b *Bot) cmdBan(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	target := b.mentionedUser(msg)
	if target == nil {
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Mention the member to ban.")
		return
	}
	reason := strings.Join(args[1:], " ")

	// Ban first, record second: a refused ban must leave no record behind.
	if err := session.GuildBanCreateWithReason(msg.GuildID, target.ID, reason, 0); err != nil {
		b.logger.Warn("ban refused", zap.String("target_id", target.ID), zap.Error(err))
		b.sendTemp(msg.ChannelID, msg.Author.Mention()+" Could not ban that member. They may outrank the bot.")
		return
	}

	rec := store.BanRecord{
		User:       target.Username,
		UserID:     target.ID,
		BannedBy:   msg.Author.Username,
		BannedByID: msg.Author.ID,
		Reason:     reason,
		Date:       time.Now(),
	}
	if err := b.bans.Put(rec); err != nil {
		b.reportError("ban", err)
	}
	b.logger.Info("member banned",
		zap.String("target_id", target.ID),
		zap.String("issued_by", msg.Author.ID),
		zap.String("reason", reason))

	embed := staffEmbed(
		"Member Banned",
		fmt.Sprintf("> %s was banned by %s.\n> Reason: %s", target.Username, msg.Author.Mention(), reason),
		colorDarkRed,
	)
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

func (b *Bot) cmdRestart(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	_, _ = session.ChannelMessageSend(msg.ChannelID, "Restarting...")
	b.logger.Info("restart requested", zap.String("issued_by", msg.Author.ID))
	b.requestRestart()
}

func (b *Bot) cmdPing(session *discordgo.Session, msg *discordgo.MessageCreate, args []string) {
	latency := session.HeartbeatLatency().Round(time.Millisecond)
	embed := plainEmbed("Pong!", "> Gateway latency: "+latency.String(), colorGreen)
	_, _ = session.ChannelMessageSendEmbed(msg.ChannelID, embed)
}

// parseMuteDuration accepts Go duration strings ("10m", "1h30m") and bare
// numbers, which are read as minutes.
func parseMuteDuration(raw string) (time.Duration, error) {
	if minutes, err := strconv.Atoi(raw); err == nil {
		if minutes <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
