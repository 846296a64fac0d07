package handlers

import (
	"net/http"
	"time"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/media"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	People  *PersonHandler
	Users   *UserHandler
	Catalog *i18n.Catalog
	Store   *media.LocalStorage
	// Events serves the websocket feed, nil disables the route.
	Events http.HandlerFunc

	ProfileImagesSubDir string
	ThumbnailsSubDir    string
	AllowedOrigins      []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger())
	r.Use(logging.AccessLogger())
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)
	if cfg.Catalog != nil {
		r.Use(i18n.Middleware(cfg.Catalog))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// websocket connections outlive any request timeout
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/people", func(r chi.Router) {
				r.Post("/", cfg.People.CreatePerson)
				r.Get("/", cfg.People.ListPeople)
				r.Put("/bulk", cfg.People.BulkEditPeople)
				r.Route("/{person_id}", func(r chi.Router) {
					r.Get("/", cfg.People.GetPerson)
					r.Put("/", cfg.People.UpdatePerson)
					r.Delete("/", cfg.People.DeletePerson)
					r.Put("/profile_image", cfg.People.UploadProfileImage)
					r.Delete("/profile_image", cfg.People.DeleteProfileImage)
					r.Get("/address", cfg.People.GetAddress)
					r.Put("/address", cfg.People.SaveAddress)
					r.Get("/form", cfg.People.PersonForm)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Post("/", cfg.Users.CreateUser)
				r.Get("/form", cfg.Users.AccountForm)
				r.Route("/{user_id}", func(r chi.Router) {
					r.Get("/", cfg.Users.GetUser)
					r.Put("/", cfg.Users.UpdateUser)
				})
			})

			r.Get("/timezones", ListTimezones)

			if cfg.Store != nil {
				r.Get("/"+cfg.ProfileImagesSubDir+"/*", AssetServer(cfg.Store, cfg.ProfileImagesSubDir))
				r.Get("/"+cfg.ThumbnailsSubDir+"/*", AssetServer(cfg.Store, cfg.ThumbnailsSubDir))
			}
		})

		if cfg.Events != nil {
			r.Get("/events", cfg.Events)
		}
	})

	return r
}
