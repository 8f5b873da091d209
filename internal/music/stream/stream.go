// /internal/music/stream/stream.go
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"xerobot/internal/music/player"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// StreamToDiscord reads s16le PCM from src, opus-encodes it and sends
// frames to the voice connection until the source ends, ctrl.Stop is
// closed, or the send fails. A pending pause blocks between frames.
func StreamToDiscord(src io.ReadCloser, ctrl *player.Controls, vc *discordgo.VoiceConnection) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	defer src.Close()

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("failed to set speaking: %w", err)
	}
	defer vc.Speaking(false)

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-ctrl.Stop:
			return nil
		case paused := <-ctrl.Pause:
			if paused {
				if err := waitResume(ctrl); err != nil {
					return nil
				}
			}
		default:
			_, err := io.ReadFull(src, pcmBuf)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil // track finished
				}
				return fmt.Errorf("read error: %w", err)
			}

			for i := range intBuf {
				intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
			}

			opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
			if err != nil {
				return fmt.Errorf("encode error: %w", err)
			}

			select {
			case vc.OpusSend <- opus:
			case <-ctrl.Stop:
				return nil
			}
		}
	}
}

// waitResume blocks until resume or stop. Stop wins.
func waitResume(ctrl *player.Controls) error {
	for {
		select {
		case <-ctrl.Stop:
			return io.EOF
		case paused := <-ctrl.Pause:
			if !paused {
				return nil
			}
		}
	}
}
