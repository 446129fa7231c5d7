// Package token is the single place tokens are read and written.
//
// Exactly two logical keys exist, AccessKey and RefreshKey. Every other
// package goes through a Store, so there is one canonical name per token
// and no way for a second spelling of the access-token key to creep in.
package token

import "github.com/meridian-mfi/meridian-admin/internal/shared"

const (
	// AccessKey names the short-lived bearer credential.
	AccessKey = "accessToken"
	// RefreshKey names the longer-lived credential used to mint new access tokens.
	RefreshKey = "refreshToken"
)

// Store persists the two token strings in the browser's durable session.
// It is a thin cache: no expiry tracking, no encryption.
type Store struct {
	sess *shared.Session
}

// NewStore binds a Store to one browser session.
func NewStore(sess *shared.Session) *Store {
	return &Store{sess: sess}
}

// Get returns the stored value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	if s == nil || s.sess == nil {
		return "", false
	}
	v := s.sess.Get(key)
	return v, v != ""
}

// Set stores value under key.
func (s *Store) Set(key, value string) {
	if s == nil || s.sess == nil {
		return
	}
	s.sess.Set(key, value)
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	if s == nil || s.sess == nil {
		return
	}
	s.sess.Delete(key)
}

// AccessToken returns the persisted access token, if any.
func (s *Store) AccessToken() (string, bool) { return s.Get(AccessKey) }

// RefreshToken returns the persisted refresh token, if any.
func (s *Store) RefreshToken() (string, bool) { return s.Get(RefreshKey) }

// SetPair stores both tokens at once, as login does.
func (s *Store) SetPair(access, refresh string) {
	s.Set(AccessKey, access)
	s.Set(RefreshKey, refresh)
}

// Clear removes both tokens. Safe to call when nothing is stored.
func (s *Store) Clear() {
	s.Remove(AccessKey)
	s.Remove(RefreshKey)
}
