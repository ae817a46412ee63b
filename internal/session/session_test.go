package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testStore returns a session store backed by an in-process miniredis.
func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, false), mr
}

func bearer(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestSessionCreateAndGet(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	userID := uuid.New()

	w := httptest.NewRecorder()
	token, err := store.Create(ctx, w, &Data{UserID: userID, Role: "user"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != idLength*2 {
		t.Errorf("token length = %d, want %d", len(token), idLength*2)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != token {
		t.Fatalf("cookies = %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	data, err := store.Get(ctx, bearer(token))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data == nil || data.UserID != userID || data.Role != "user" {
		t.Fatalf("data = %+v", data)
	}

	// The cookie works as well as the header.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	if data, _ := store.Get(ctx, r); data == nil {
		t.Error("expected session from cookie")
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"other scheme", "Basic abc", "zzz", ""},
		{"cookie fallback", "", "zzz", "zzz"},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if got := Token(r); got != tt.want {
				t.Errorf("Token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	store, _ := testStore(t)
	data, err := store.Get(context.Background(), bearer("nope"))
	if err != nil || data != nil {
		t.Errorf("Get = %+v, %v; want nil, nil", data, err)
	}
}

func TestSessionExpires(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()
	token, _ := store.Create(ctx, httptest.NewRecorder(), &Data{UserID: uuid.New()})

	mr.FastForward(DefaultTTL + time.Minute)
	if data, _ := store.Get(ctx, bearer(token)); data != nil {
		t.Error("session should expire after the TTL")
	}
}

func TestSessionDestroy(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	token, _ := store.Create(ctx, httptest.NewRecorder(), &Data{UserID: uuid.New()})

	w := httptest.NewRecorder()
	if err := store.Destroy(ctx, w, bearer(token)); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if data, _ := store.Get(ctx, bearer(token)); data != nil {
		t.Error("session should be gone after Destroy")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestRevokeUser(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	victim := uuid.New()
	other := uuid.New()

	t1, _ := store.Create(ctx, httptest.NewRecorder(), &Data{UserID: victim})
	t2, _ := store.Create(ctx, httptest.NewRecorder(), &Data{UserID: victim})
	t3, _ := store.Create(ctx, httptest.NewRecorder(), &Data{UserID: other})

	if err := store.RevokeUser(ctx, victim); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	for _, tok := range []string{t1, t2} {
		if data, _ := store.Get(ctx, bearer(tok)); data != nil {
			t.Error("revoked session still valid")
		}
	}
	if data, _ := store.Get(ctx, bearer(t3)); data == nil {
		t.Error("other user's session should survive")
	}
}
