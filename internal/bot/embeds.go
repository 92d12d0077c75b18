package bot

import "github.com/bwmarrin/discordgo"

const (
	colorGreen   = 0x57F287
	colorYellow  = 0xFEE75C
	colorRed     = 0xED4245
	colorBlue    = 0x5865F2
	colorOrange  = 0xE67E22
	colorGold    = 0xF1C40F
	colorFuchsia = 0xEB459E
	colorBlack   = 0x23272A
	colorDarkRed = 0x992D22
)

const staffFooter = "This message was written by server staff."

func staffEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: staffFooter},
	}
}

func plainEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
	}
}
