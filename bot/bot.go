package bot

import (
	"context"
	"fmt"
	"strconv"

	"chesswager/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token string
}

// session is the part of *discordgo.Session the notifier needs
type session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers settlement notifications as Discord direct messages
type Notifier struct {
	session session
	closer  func() error
}

// New opens a Discord session for sending direct messages
func New(config Config) (*Notifier, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsDirectMessages

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	log.Info("Discord notifier connected")
	return &Notifier{session: dg, closer: dg.Close}, nil
}

func newWithSession(s session) *Notifier {
	return &Notifier{session: s, closer: func() error { return nil }}
}

// Close closes the Discord session
func (n *Notifier) Close() error {
	return n.closer()
}

// Notify sends the intent as an embed to the user's DM channel.
// Users without a linked Discord account are skipped.
func (n *Notifier) Notify(ctx context.Context, user *models.User, intent models.NotificationIntent) error {
	if user.DiscordID == nil {
		log.WithFields(log.Fields{
			"user_id":  user.ID,
			"wager_id": intent.WagerID,
		}).Debug("User has no Discord account, skipping notification")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	channel, err := n.session.UserChannelCreate(strconv.FormatInt(*user.DiscordID, 10), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}

	if _, err := n.session.ChannelMessageSendEmbed(channel.ID, buildSettlementEmbed(intent), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}
