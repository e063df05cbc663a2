package bot

import (
	"fmt"

	"chesswager/models"

	"github.com/bwmarrin/discordgo"
)

// Color constants for embeds
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
)

// buildSettlementEmbed creates the embed for a settled wager
func buildSettlementEmbed(intent models.NotificationIntent) *discordgo.MessageEmbed {
	color := ColorPrimary
	switch intent.Kind {
	case models.NotificationKindWon:
		color = ColorSuccess
	case models.NotificationKindLost:
		color = ColorDanger
	}

	return &discordgo.MessageEmbed{
		Title:       intent.Title,
		Description: intent.Message,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Details",
				Value: intent.Details,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Challenge #%d", intent.WagerID),
		},
	}
}
