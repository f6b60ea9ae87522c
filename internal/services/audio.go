package services

import (
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"
)

type AudioAction string

const (
	AudioPlay        AudioAction = "play"
	AudioPause       AudioAction = "pause"
	AudioResume      AudioAction = "resume"
	AudioStop        AudioAction = "stop"
	AudioSeek        AudioAction = "seek"
	AudioVolume      AudioAction = "volume"
	AudioRestartLast AudioAction = "restartLast"
)

// AudioCommand is the wire form fanned out to the delegated playback
// surface (the host device drives actual audio output). Reason is an
// observability tag only; it never affects routing.
type AudioCommand struct {
	Action     AudioAction `json:"action"`
	TrackID    string      `json:"track_id,omitempty"`
	URI        string      `json:"uri,omitempty"`
	PositionMs int64       `json:"position_ms,omitempty"`
	DurationMs int64       `json:"duration_ms,omitempty"`
	Volume     float64     `json:"volume,omitempty"`
	Title      string      `json:"title,omitempty"`
	Artist     string      `json:"artist,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// AudioRouter fans playback commands out to the session's sockets. It keeps
// only the "last playable" descriptor needed for restartLast; it never
// decodes or streams audio itself.
type AudioRouter struct {
	hub      *ws.Hub
	registry *Registry
}

func NewAudioRouter(hub *ws.Hub, registry *Registry) *AudioRouter {
	return &AudioRouter{hub: hub, registry: registry}
}

// Dispatch validates, normalizes, and broadcasts one command. Every command
// is fire-and-forget; the only state retained is the last play descriptor.
func (r *AudioRouter) Dispatch(sessionID uint, cmd AudioCommand) error {
	rt := r.registry.Get(sessionID)
	rt.mu.Lock()

	switch cmd.Action {
	case AudioVolume:
		if cmd.Volume < 0 {
			cmd.Volume = 0
		}
		if cmd.Volume > 1 {
			cmd.Volume = 1
		}
	case AudioPlay:
		last := cmd
		rt.lastPlay = &last
	case AudioRestartLast:
		if rt.lastPlay == nil {
			rt.mu.Unlock()
			return PlaybackUnavailableError{}
		}
		replay := *rt.lastPlay
		replay.Action = AudioPlay
		replay.Reason = cmd.Reason
		cmd = replay
	}
	rt.mu.Unlock()

	r.hub.Broadcast(sessionID, ws.WSMessage{Type: ws.EventAudioCommand, Data: cmd})
	return nil
}
