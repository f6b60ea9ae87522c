package services

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityService binds humans to LivePlayer rows: join by code, claim by
// device hash, deep-link by permanent access token, leave, and the
// rejoin-eligibility rules.
type IdentityService struct {
	db       *gorm.DB
	hub      *ws.Hub
	sessions *SessionService
	salt     string
}

func NewIdentityService(db *gorm.DB, hub *ws.Hub, sessions *SessionService, salt string) *IdentityService {
	return &IdentityService{db: db, hub: hub, sessions: sessions, salt: salt}
}

// HashDeviceID salts and hashes a client-generated device identifier so raw
// identifiers are never stored.
func (s *IdentityService) HashDeviceID(deviceID string) string {
	sum := sha256.Sum256([]byte(s.salt + deviceID))
	return hex.EncodeToString(sum[:])
}

// JoinByCode creates a new player, or reactivates a left-but-answered
// player with the same name (the rejoin-eligible case).
func (s *IdentityService) JoinByCode(code, name, avatar string) (*models.LivePlayer, error) {
	session, err := s.sessions.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, SessionTerminalError{Status: string(session.Status)}
	}

	var existing models.LivePlayer
	err = s.db.Where("session_id = ? AND name = ? AND left_at IS NOT NULL", session.ID, name).
		First(&existing).Error
	if err == nil && s.hasAnswers(session.ID, existing.ID) {
		now := time.Now()
		s.db.Model(&existing).Updates(map[string]interface{}{
			"left_at":        nil,
			"last_active_at": now,
		})
		existing.LeftAt = nil
		existing.LastActiveAt = now
		s.broadcastJoined(session.ID, &existing)
		return &existing, nil
	}

	now := time.Now()
	player := models.LivePlayer{
		SessionID:    session.ID,
		Name:         name,
		Avatar:       avatar,
		AccessToken:  uuid.NewString(),
		JoinedAt:     now,
		LastActiveAt: now,
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}
	s.broadcastJoined(session.ID, &player)
	return &player, nil
}

// RegisterPlayer lets the host pre-create a named player with no device
// binding; it shows up as claimable for everyone until a device takes it.
func (s *IdentityService) RegisterPlayer(sessionID, hostID uint, name, avatar string) (*models.LivePlayer, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, ForbiddenError{Reason: "only the host may pre-register players"}
	}
	if session.Status.Terminal() {
		return nil, SessionTerminalError{Status: string(session.Status)}
	}

	now := time.Now()
	player := models.LivePlayer{
		SessionID:    sessionID,
		Name:         name,
		Avatar:       avatar,
		AccessToken:  uuid.NewString(),
		JoinedAt:     now,
		LastActiveAt: now,
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}
	s.broadcastJoined(sessionID, &player)
	return &player, nil
}

// ClaimablePlayers lists who the given device may claim in a session:
// active players not yet bound to any device, players already bound to this
// device, and left players that recorded at least one answer (rejoin
// candidates). A left player with zero answers never appears — they never
// participated.
func (s *IdentityService) ClaimablePlayers(code, deviceID string) ([]models.LivePlayer, error) {
	session, err := s.sessions.GetByCode(code)
	if err != nil {
		return nil, err
	}
	hash := s.HashDeviceID(deviceID)

	var players []models.LivePlayer
	s.db.Where("session_id = ?", session.ID).Order("joined_at ASC").Find(&players)

	claimable := make([]models.LivePlayer, 0, len(players))
	for _, p := range players {
		switch {
		case p.Active() && p.DeviceIDHash == nil:
			claimable = append(claimable, p)
		case p.DeviceIDHash != nil && *p.DeviceIDHash == hash:
			claimable = append(claimable, p)
		case !p.Active() && s.hasAnswers(session.ID, p.ID):
			claimable = append(claimable, p)
		}
	}
	return claimable, nil
}

// ClaimPlayer binds a device to a player. The bind is a compare-and-swap on
// device_id_hash: it succeeds only while the hash is unset or already equal
// to the requesting device, so two devices racing for the same player can
// never both win.
func (s *IdentityService) ClaimPlayer(code string, playerID uint, deviceID string) (*models.LivePlayer, error) {
	session, err := s.sessions.GetByCode(code)
	if err != nil {
		return nil, err
	}
	hash := s.HashDeviceID(deviceID)

	var target models.LivePlayer
	if err := s.db.Where("id = ? AND session_id = ?", playerID, session.ID).
		First(&target).Error; err != nil {
		return nil, PlayerNotFoundError{PlayerID: playerID}
	}
	// A left player with no recorded answers never participated; they are
	// not offered for claim and the direct path refuses them too.
	if !target.Active() && !s.hasAnswers(session.ID, target.ID) {
		return nil, PlayerNotFoundError{PlayerID: playerID}
	}

	res := s.db.Model(&models.LivePlayer{}).
		Where("id = ? AND session_id = ? AND (device_id_hash IS NULL OR device_id_hash = ?)",
			playerID, session.ID, hash).
		Updates(map[string]interface{}{
			"device_id_hash": hash,
			"left_at":        nil,
			"last_active_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, DeviceConflictError{PlayerName: target.Name}
	}

	// A device holds at most one active player per session: winning a claim
	// releases any other player this device still held.
	s.db.Model(&models.LivePlayer{}).
		Where("session_id = ? AND device_id_hash = ? AND id <> ? AND left_at IS NULL",
			session.ID, hash, playerID).
		Update("left_at", time.Now())

	var player models.LivePlayer
	if err := s.db.First(&player, playerID).Error; err != nil {
		return nil, PlayerNotFoundError{PlayerID: playerID}
	}
	s.broadcastJoined(session.ID, &player)
	return &player, nil
}

// ResolveAccessToken is the permanent deep link: it always re-activates the
// player regardless of device, the escape hatch when device matching fails
// (cleared browser storage and the like). Only a terminal session refuses.
func (s *IdentityService) ResolveAccessToken(token string) (*models.LivePlayer, *models.LiveSession, error) {
	var player models.LivePlayer
	if err := s.db.Where("access_token = ?", token).First(&player).Error; err != nil {
		return nil, nil, TokenInvalidError{}
	}

	session, err := s.sessions.GetByID(player.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return nil, nil, SessionTerminalError{Status: string(session.Status)}
	}

	now := time.Now()
	s.db.Model(&player).Updates(map[string]interface{}{
		"left_at":        nil,
		"last_active_at": now,
	})
	player.LeftAt = nil
	player.LastActiveAt = now
	return &player, session, nil
}

// ReactivateByID clears LeftAt for a known player id, refusing only when
// the session is terminal. Used by the rejoin-ticket flow.
func (s *IdentityService) ReactivateByID(playerID uint) (*models.LivePlayer, *models.LiveSession, error) {
	var player models.LivePlayer
	if err := s.db.First(&player, playerID).Error; err != nil {
		return nil, nil, PlayerNotFoundError{PlayerID: playerID}
	}
	session, err := s.sessions.GetByID(player.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return nil, nil, SessionTerminalError{Status: string(session.Status)}
	}

	now := time.Now()
	s.db.Model(&player).Updates(map[string]interface{}{
		"left_at":        nil,
		"last_active_at": now,
	})
	player.LeftAt = nil
	player.LastActiveAt = now
	return &player, session, nil
}

// Leave marks the player gone without deleting anything; their answers stay
// attributable and make them rejoin-eligible.
func (s *IdentityService) Leave(token string) error {
	var player models.LivePlayer
	if err := s.db.Where("access_token = ?", token).First(&player).Error; err != nil {
		return TokenInvalidError{}
	}
	now := time.Now()
	if err := s.db.Model(&player).Update("left_at", now).Error; err != nil {
		return err
	}
	s.hub.Broadcast(player.SessionID, ws.WSMessage{
		Type: ws.EventPlayerLeft,
		Data: map[string]interface{}{"player_id": player.ID, "name": player.Name},
	})
	return nil
}

func (s *IdentityService) hasAnswers(sessionID, playerID uint) bool {
	var count int64
	s.db.Model(&models.LiveAnswer{}).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Count(&count)
	return count > 0
}

func (s *IdentityService) broadcastJoined(sessionID uint, player *models.LivePlayer) {
	s.hub.Broadcast(sessionID, ws.WSMessage{
		Type: ws.EventPlayerJoined,
		Data: map[string]interface{}{"player_id": player.ID, "name": player.Name, "avatar": player.Avatar},
	})
}
