package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eslsoft/yorlect/internal/entity"
)

const (
	defaultCookieName = "yorlect_session"
	defaultSessionTTL = 12 * time.Hour
)

// SessionOptions configures the session manager.
type SessionOptions struct {
	// Secret signs session cookies. A random secret is generated when empty,
	// which invalidates cookies on restart.
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

type sessionEntry struct {
	mu   sync.Mutex
	sess *entity.Session
}

// SessionManager keeps per-browser controller state in memory. The cookie
// carries only a signed session id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool

	clock func() time.Time
	newID func() string
}

func NewSessionManager(opts SessionOptions) (*SessionManager, error) {
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	return &SessionManager{
		sessions:   make(map[string]*sessionEntry),
		secret:     secret,
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		clock:      time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Acquire returns the caller's session locked for the duration of the
// request, creating one (and setting its cookie) when the request carries
// none or an invalid one. The returned func releases the lock.
func (m *SessionManager) Acquire(w http.ResponseWriter, r *http.Request) (*entity.Session, func(), error) {
	now := m.clock()

	var id string
	if c, err := r.Cookie(m.cookieName); err == nil {
		if parsed, err := m.parseToken(c.Value); err == nil {
			id = parsed
		}
	}

	m.mu.Lock()
	m.expireLocked(now)
	entry, ok := m.sessions[id]
	if !ok {
		id = m.newID()
		entry = &sessionEntry{sess: entity.NewSession(id, now)}
		m.sessions[id] = entry
	}
	m.mu.Unlock()

	if !ok {
		if err := m.setCookie(w, id, now); err != nil {
			return nil, nil, err
		}
	}

	entry.mu.Lock()
	entry.sess.LastSeen = now
	return entry.sess, entry.mu.Unlock, nil
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) expireLocked(now time.Time) {
	for id, entry := range m.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		expired := now.Sub(entry.sess.LastSeen) > m.ttl
		entry.mu.Unlock()
		if expired {
			delete(m.sessions, id)
		}
	}
}

func (m *SessionManager) setCookie(w http.ResponseWriter, id string, now time.Time) error {
	token, err := m.signToken(id, now)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(m.ttl),
	})
	return nil
}

func (m *SessionManager) signToken(id string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *SessionManager) parseToken(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.clock))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.ID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.ID, nil
}
