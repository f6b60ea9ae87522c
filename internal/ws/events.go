package ws

// Event names carried in WSMessage.Type. Inbound events arrive from player
// or host sockets; outbound events are fanned out by the engine.
const (
	// engine → sockets
	EventSessionStatusChanged = "SESSION_STATUS_CHANGED"
	EventItemStarted          = "ITEM_STARTED"
	EventItemLocked           = "ITEM_LOCKED"
	EventAnswersRevealed      = "ANSWERS_REVEALED"
	EventAnswerCountUpdated   = "ANSWER_COUNT_UPDATED"
	EventLeaderboardUpdate    = "LEADERBOARD_UPDATE"
	EventConnectionStatus     = "CONNECTION_STATUS_UPDATE"
	EventPlayerJoined         = "PLAYER_JOINED"
	EventPlayerLeft           = "PLAYER_LEFT"
	EventAudioCommand         = "AUDIO_COMMAND"
	EventGameState            = "GAME_STATE"
	EventGameEnded            = "GAME_ENDED"

	// sockets → engine
	EventHeartbeat       = "HEARTBEAT"
	EventMoveInput       = "MOVE_INPUT"
	EventActivateAbility = "ACTIVATE_ABILITY"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Role distinguishes the host device from phone-class player devices on the
// same session socket endpoint.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

type MoveInput struct {
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
}

type AbilityInput struct {
	Ability string `json:"ability"`
}

type HeartbeatInput struct {
	SentAt int64 `json:"sent_at"`
}
