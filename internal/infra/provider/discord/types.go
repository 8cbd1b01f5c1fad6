package discord

import (
	"fmt"
	"strings"

	"github.com/synzr/torobooru/internal/domain"
)

// CDNBaseURL serves avatars and banners.
const CDNBaseURL = "https://cdn.discordapp.com"

// MessagePageURL is the jump link prefix of a message.
const MessagePageURL = "https://discord.com/channels/"

const imageSize = 512

type channel struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id"`
}

type attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	ProxyURL    string `json:"proxy_url"`
}

type user struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	Banner        string `json:"banner"`
}

type message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Content     string       `json:"content"`
	Author      user         `json:"author"`
	Attachments []attachment `json:"attachments"`
}

// ToDomain converts the message to domain.DiscordMessage, keeping image
// attachments only. guildID is empty for direct messages.
func (m *message) ToDomain(guildID string) *domain.DiscordMessage {
	if guildID == "" {
		guildID = "@me"
	}

	images := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		if !strings.HasPrefix(a.ContentType, "image") {
			continue
		}
		images = append(images, a.ProxyURL)
	}

	return &domain.DiscordMessage{
		MessageID:        m.ID,
		UserID:           m.Author.ID,
		FullURL:          MessagePageURL + guildID + "/" + m.ChannelID + "/" + m.ID,
		Content:          m.Content,
		ImageAttachments: images,
	}
}

// ToDomain converts the user to domain.DiscordUser.
func (u *user) ToDomain() *domain.DiscordUser {
	displayName := u.GlobalName
	if displayName == "" {
		displayName = u.Username
	}

	return &domain.DiscordUser{
		UserID:              u.ID,
		Name:                u.Username,
		DisplayName:         displayName,
		LegacyDiscriminator: u.Discriminator,
		AvatarURL:           cdnImage("avatars", u.ID, u.Avatar),
		BannerURL:           cdnImage("banners", u.ID, u.Banner),
	}
}

// cdnImage builds a static PNG URL, or nil when the user has no such image.
func cdnImage(kind, userID, hash string) *string {
	if hash == "" {
		return nil
	}

	url := fmt.Sprintf("%s/%s/%s/%s.png?size=%d", CDNBaseURL, kind, userID, hash, imageSize)

	return &url
}
