// Package session provides Valkey-backed bearer-token sessions. A token is
// an opaque random string sent as "Authorization: Bearer <token>" (or in
// the session cookie) and stored as JSON in Valkey with automatic TTL
// expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie for browser clients.
	CookieName = "session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// userPrefix indexes a user's live tokens so they can be revoked together.
	userPrefix = "session-user:"

	// idLength is the byte length of the random token (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the session payload stored in Valkey.
type Data struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client       *redis.Client
	ttl          time.Duration
	secureCookie bool
}

// NewStore creates a session store backed by the given Valkey client.
// When secureCookie is true, the session cookie is only sent over HTTPS.
func NewStore(client *redis.Client, secureCookie bool) *Store {
	return &Store{
		client:       client,
		ttl:          DefaultTTL,
		secureCookie: secureCookie,
	}
}

// Create issues a new token for data, stores it and sets the session
// cookie on the response. The token is returned so API clients can send
// it as a bearer token.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	token, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	userKey := userPrefix + data.UserID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+token, payload, s.ttl)
	pipe.SAdd(ctx, userKey, token)
	pipe.Expire(ctx, userKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return token, nil
}

// Token extracts the session token from the Authorization header, falling
// back to the cookie. Returns "" when the request carries none.
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Get retrieves session data for the request's token. Returns nil if no
// valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	token := Token(r)
	if token == "" {
		return nil, nil // No token = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil // Session expired or revoked
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Destroy removes the request's session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token := Token(r)
	if token == "" {
		return nil // Nothing to destroy
	}

	data, err := s.Get(ctx, r)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyPrefix+token)
	if data != nil {
		pipe.SRem(ctx, userPrefix+data.UserID.String(), token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

// RevokeUser deletes every session belonging to a user. Used when an
// account is deleted or banned.
func (s *Store) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	userKey := userPrefix + userID.String()
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("session list user tokens: %w", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, keyPrefix+t)
	}
	keys = append(keys, userKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session revoke user: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session token.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
