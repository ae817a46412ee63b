// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL is unavailable; sessions and
// the cache run against an in-process miniredis.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"alcoholdb/internal/cache"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/database"
	"alcoholdb/internal/middleware"
	"alcoholdb/internal/models"
	"alcoholdb/internal/session"
	"alcoholdb/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "alcoholdb")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "alcoholdb")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)
	if err := database.SeedCore(db); err != nil {
		db.Close()
		t.Fatalf("seed core: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB       *sql.DB
	API      *API
	Sessions *session.Store
	Users    *store.UserStore
	Router   chi.Router
}

// newTestEnv wires the PostgreSQL backend the same way main does.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	mr := miniredis.RunT(t)
	vk := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { vk.Close() })

	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	social := store.NewSocialStore(db)
	reviews := store.NewReviewStore(db)
	items := store.NewAlcoholStore(db)
	taxonomy := store.NewTaxonomyStore(db)

	editor := catalog.NewEditor(store.NewCategoryStore(db))
	agg := catalog.NewAggregator(items, users)
	itemSvc := catalog.NewItemService(items, editor, agg, reviews, social)
	itemSvc.SetRefChecker(taxonomy)

	api := New(Deps{
		Users:     users,
		Social:    social,
		Reviews:   reviews,
		Tags:      store.NewTagStore(db),
		Taxonomy:  taxonomy,
		Errors:    store.NewReportedErrorStore(db),
		Sessions:  sessions,
		Editor:    editor,
		Items:     itemSvc,
		ReviewSvc: catalog.NewReviewService(reviews, items, agg, nil, nil),
		Accounts:  catalog.NewAccountService(reviews, agg, store.AccountCleanup{SocialStore: social, UserStore: users}, sessions),
		Cache:     cache.NewJSONCache(vk, 0),
	})
	editor.OnChange(api.InvalidateCategories)

	return &testEnv{
		DB:       db,
		API:      api,
		Sessions: sessions,
		Users:    users,
		Router:   testRouter(api, sessions, users),
	}
}

// testRouter mounts the handlers under test with the production
// middleware order.
func testRouter(api *API, sessions *session.Store, users *store.UserStore) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.LoadUser(sessions, users))
	r.Use(middleware.RejectBanned)

	r.Post("/api/auth/register", api.Register)
	r.Post("/api/auth/login", api.Login)
	r.Post("/api/auth/logout", api.Logout)
	r.Get("/api/alcohols", api.ListAlcohols)
	r.Get("/api/alcohols/{id}", api.GetAlcohol)
	r.Get("/api/alcohols/barcode/{code}", api.AlcoholByBarcode)
	r.Get("/api/alcohols/{id}/reviews", api.AlcoholReviews)
	r.Get("/api/categories", api.Categories)
	r.Get("/api/categories/schema", api.CategorySchema)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/api/users/me", api.Me)
		r.Patch("/api/users/me", api.UpdateMe)
		r.Delete("/api/users/me", api.DeleteMe)
		r.Get("/api/users/me/wishlist", api.ListEntries(models.ListWishlist))
		r.Post("/api/users/me/wishlist", api.AddToList(models.ListWishlist))
		r.Get("/api/users/me/search-history", api.SearchHistory)
		r.Post("/api/alcohols/{id}/reviews", api.CreateReview)
		r.Post("/api/reviews/{id}/report", api.ReportReview)
		r.Delete("/api/reviews/{id}", api.DeleteReview)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/api/admin/alcohols", api.CreateAlcohol)
			r.Delete("/api/admin/alcohols/{id}", api.DeleteAlcohol)
			r.Post("/api/admin/categories", api.CreateCategory)
			r.Post("/api/admin/categories/{id}/properties", api.AddCategoryProperties)
			r.Delete("/api/admin/categories/{id}", api.DeleteCategory)
			r.Post("/api/admin/users/{id}/ban", api.BanUser)
		})
	})
	return r
}

// createUser inserts a user with the given role, removes it on cleanup and
// returns it with a bearer token.
func (env *testEnv) createUser(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	email := "handler-" + uuid.NewString()[:8] + "@test.local"
	u, err := env.Users.Create(context.Background(), email, "password123", "Tester", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.API.Accounts.Delete(context.Background(), u.ID) })

	token, err := env.Sessions.Create(context.Background(), httptest.NewRecorder(),
		&session.Data{UserID: u.ID, Role: string(role)})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return u, token
}

// do sends a JSON request through the test router.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

// decodeJSON decodes a response body into dst.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rr.Body.String())
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

// createCategory creates a uniquely named category with one nullable
// attribute and deletes it on cleanup.
func (env *testEnv) createCategory(t *testing.T, adminToken string) (uuid.UUID, string) {
	t.Helper()
	title := "kind" + uuid.NewString()[:8]
	rr := env.do(t, "POST", "/api/admin/categories", adminToken, map[string]any{
		"title": title,
		"properties": map[string]any{
			"kind":    map[string]any{"bsonType": "string", "enum": []string{title}},
			"vintage": map[string]any{"bsonType": []string{"int", "null"}},
		},
	})
	expectStatus(t, rr, http.StatusCreated)
	var cat struct {
		ID uuid.UUID `json:"id"`
	}
	decodeJSON(t, rr, &cat)
	t.Cleanup(func() { env.API.Editor.DeleteCategory(context.Background(), cat.ID) })
	return cat.ID, title
}

// createAlcohol creates an item of kind and deletes it on cleanup.
func (env *testEnv) createAlcohol(t *testing.T, adminToken string, doc map[string]any) uuid.UUID {
	t.Helper()
	rr := env.do(t, "POST", "/api/admin/alcohols", adminToken, doc)
	expectStatus(t, rr, http.StatusCreated)
	var item struct {
		ID uuid.UUID `json:"id"`
	}
	decodeJSON(t, rr, &item)
	t.Cleanup(func() { env.API.Items.Delete(context.Background(), item.ID) })
	return item.ID
}
