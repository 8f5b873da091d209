package discord

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"xerobot/internal/music/player"
	"xerobot/internal/music/resolver"
	"xerobot/internal/music/stream"
)

// voiceDialer joins guild voice channels over the gateway.
type voiceDialer struct {
	dg *discordgo.Session
}

func (d *voiceDialer) Join(guildID, channelID string) (player.VoiceConn, error) {
	vc, err := d.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	log.Printf("[INFO] Joined voice channel %s on guild %s", channelID, guildID)
	return &voiceConn{vc: vc, client: &http.Client{Timeout: 0}}, nil
}

// voiceConn adapts a discordgo voice connection to the player's
// transport interface. The HTTP client has no timeout: radio streams
// run until stopped.
type voiceConn struct {
	vc     *discordgo.VoiceConnection
	client *http.Client
}

func (c *voiceConn) ChannelID() string {
	return c.vc.ChannelID
}

func (c *voiceConn) Move(channelID string) error {
	return c.vc.ChangeChannel(channelID, false, true)
}

// Play opens the track's stream URL and feeds it to the voice
// connection until it ends or the controls stop it.
func (c *voiceConn) Play(track resolver.Track, ctrl *player.Controls) error {
	req, err := http.NewRequest(http.MethodGet, track.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	return stream.StreamToDiscord(resp.Body, ctrl, c.vc)
}

func (c *voiceConn) Disconnect() error {
	return c.vc.Disconnect()
}
