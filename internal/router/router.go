// Package router sets up all HTTP routes and middleware chains for the
// alcoholdb API. Routes are grouped into public, authenticated and admin
// groups with the matching middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"alcoholdb/internal/handlers"
	"alcoholdb/internal/metrics"
	"alcoholdb/internal/middleware"
	"alcoholdb/internal/models"
	"alcoholdb/internal/session"
)

// Options tunes the cross-cutting middleware.
type Options struct {
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string
	// AuthRequests per AuthWindow per client IP on login and register.
	AuthRequests int
	AuthWindow   time.Duration
}

// DefaultOptions allows any origin and 10 auth attempts per minute.
func DefaultOptions() Options {
	return Options{
		CORSOrigins:  []string{"*"},
		AuthRequests: 10,
		AuthWindow:   time.Minute,
	}
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(api *handlers.API, sessions *session.Store, users middleware.UserLookup, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadUser(sessions, users))
		r.Use(middleware.RejectBanned)

		// Auth: rate limited per client IP.
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter(opts)).Post("/register", api.Register)
			r.With(authLimiter(opts)).Post("/login", api.Login)
			r.Post("/logout", api.Logout)
		})

		// Public reads.
		r.Get("/alcohols", api.ListAlcohols)
		r.Get("/alcohols/barcode/{code}", api.AlcoholByBarcode)
		r.Get("/alcohols/{id}", api.GetAlcohol)
		r.Get("/alcohols/{id}/reviews", api.AlcoholReviews)
		r.Get("/categories", api.Categories)
		r.Get("/categories/schema", api.CategorySchema)
		r.Get("/countries", api.Countries)
		r.Get("/regions", api.Regions)
		r.Get("/flavours", api.Flavours)
		r.Get("/tags", api.ListTags)
		r.Get("/users/{id}", api.GetUser)
		r.Get("/users/{id}/reviews", api.UserReviews)
		r.Get("/users/{id}/followers", api.Followers)
		r.Get("/users/{id}/following", api.Following)

		// Signed-in users.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", api.Me)
				r.Patch("/", api.UpdateMe)
				r.Delete("/", api.DeleteMe)
				r.Get("/recommendations", api.Recommendations)

				for _, kind := range []models.ListKind{models.ListWishlist, models.ListFavourites} {
					r.Get("/"+string(kind), api.ListEntries(kind))
					r.Post("/"+string(kind), api.AddToList(kind))
					r.Delete("/"+string(kind)+"/{alcoholID}", api.RemoveFromList(kind))
				}

				r.Get("/search-history", api.SearchHistory)
				r.Post("/search-history", api.RecordSearch)
				r.Delete("/search-history", api.ClearSearchHistory)
			})

			r.Post("/users/{id}/follow", api.Follow)
			r.Delete("/users/{id}/follow", api.Unfollow)

			r.Post("/alcohols/{id}/reviews", api.CreateReview)
			r.Post("/alcohols/{id}/tags/{tagID}", api.AttachTag)
			r.Delete("/alcohols/{id}/tags/{tagID}", api.DetachTag)
			r.Post("/alcohols/{id}/errors", api.ReportError)
			r.Post("/tags", api.CreateTag)

			r.Route("/reviews/{id}", func(r chi.Router) {
				r.Patch("/", api.UpdateReview)
				r.Delete("/", api.DeleteReview)
				r.Post("/report", api.ReportReview)
				r.Post("/helpful", api.VoteHelpful)
				r.Delete("/helpful", api.WithdrawHelpful)
			})
		})

		// Administration.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin)

			r.Route("/alcohols", func(r chi.Router) {
				r.Post("/", api.CreateAlcohol)
				r.Patch("/{id}", api.UpdateAlcohol)
				r.Delete("/{id}", api.DeleteAlcohol)
				r.Put("/{id}/image", api.UploadAlcoholImage)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", api.CreateCategory)
				r.Post("/{id}/properties", api.AddCategoryProperties)
				r.Delete("/{id}/properties", api.RemoveCategoryProperties)
				r.Delete("/{id}", api.DeleteCategory)
			})

			r.Route("/countries", func(r chi.Router) {
				r.Post("/", api.CreateCountry)
				r.Patch("/{id}", api.RenameCountry)
				r.Delete("/{id}", api.DeleteCountry)
			})
			r.Route("/regions", func(r chi.Router) {
				r.Post("/", api.CreateRegion)
				r.Patch("/{id}", api.RenameRegion)
				r.Delete("/{id}", api.DeleteRegion)
			})
			r.Route("/flavours", func(r chi.Router) {
				r.Post("/", api.CreateFlavour)
				r.Patch("/{id}", api.RenameFlavour)
				r.Delete("/{id}", api.DeleteFlavour)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/reported", api.ReportedReviews)
				r.Get("/banned", api.BannedReviews)
				r.Post("/{id}/ban", api.BanReview)
				r.Delete("/{id}", api.DeleteReview)
			})

			r.Get("/errors", api.ErrorReports)
			r.Delete("/errors/{id}", api.DeleteErrorReport)

			r.Get("/users", api.ListUsers)
			r.Post("/users/{id}/ban", api.BanUser)
			r.Post("/users/{id}/unban", api.UnbanUser)

			r.Delete("/tags/{id}", api.DeleteTag)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"route not found"}`)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, `{"error":"method not allowed"}`)
	})

	return r
}

// authLimiter limits login and register attempts per client IP.
func authLimiter(opts Options) func(http.Handler) http.Handler {
	if opts.AuthRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(opts.AuthRequests, opts.AuthWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, `{"error":"too many requests"}`)
		}),
	)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, `{"status":"ok"}`)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
