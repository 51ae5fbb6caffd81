package session

import (
	"fmt"
	"log"
)

// TokenStore is the single persisted slot for the resumption token. The
// slot is keyed by client installation, not by room: starting a second
// session overwrites it.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

// Handshake is what the join carries to the server. ResumptionToken is the
// empty string when nothing has been persisted yet.
type Handshake struct {
	Room            string
	Username        string
	ResumptionToken string
}

// Session is the identity of one active room membership. ConnectionID is
// ephemeral and reassigned on every connect; ResumptionToken outlives it.
type Session struct {
	Username        string
	Room            string
	ResumptionToken string
	ConnectionID    string
}

// Store owns the live session and the token slot behind it.
type Store struct {
	tokens TokenStore
	sess   Session
}

// Join creates the session for a room, loading any previously persisted
// resumption token into the handshake.
func Join(room, username string, tokens TokenStore) (*Store, error) {
	token, err := tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load resumption token: %w", err)
	}

	if token == "" {
		log.Printf("[SESSION] No stored token, joining %s as %s fresh", room, username)
	} else {
		log.Printf("[SESSION] Resuming identity in %s as %s", room, username)
	}

	return &Store{
		tokens: tokens,
		sess: Session{
			Username:        username,
			Room:            room,
			ResumptionToken: token,
		},
	}, nil
}

// Handshake returns the join payload for the current connection attempt.
func (s *Store) Handshake() Handshake {
	return Handshake{
		Room:            s.sess.Room,
		Username:        s.sess.Username,
		ResumptionToken: s.sess.ResumptionToken,
	}
}

// SetConnectionID records the server-assigned id for this connection.
func (s *Store) SetConnectionID(id string) {
	s.sess.ConnectionID = id
}

// AdoptToken persists a server-issued resumption token, overwriting any
// prior value, and carries it on subsequent handshakes.
func (s *Store) AdoptToken(token string) error {
	if err := s.tokens.Save(token); err != nil {
		return fmt.Errorf("persist resumption token: %w", err)
	}
	s.sess.ResumptionToken = token
	log.Printf("[SESSION] Resumption token updated for %s", s.sess.Username)
	return nil
}

// Current returns a copy of the session state.
func (s *Store) Current() Session {
	return s.sess
}
