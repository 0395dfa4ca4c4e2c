package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/handlers"
)

const identityV2 = "/identity/v2.0"

func init() { Register(registerIdentity) }

func registerIdentity(r chi.Router, d deps.Deps) {
	r.Post(identityV2+"/tokens", handlers.Tokens(d))
	r.Get(identityV2+"/tokens/{token}/endpoints", handlers.TokenEndpoints(d))
}
