package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/handlers"
)

func init() { Register(registerPlugins) }

func registerPlugins(r chi.Router, d deps.Deps) {
	r.HandleFunc("/"+catalog.MimickingPath+"/*", handlers.Mimicking(d))

	r.Get("/domains", handlers.Domains(d))
	r.HandleFunc("/domain/{domain}", handlers.Domain(d))
	r.HandleFunc("/domain/{domain}/*", handlers.Domain(d))
}
