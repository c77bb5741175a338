// Package handlers exposes the coordinators over a chi JSON API and table websockets.
package handlers

import (
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/tabletop/internal/auth"
	"github.com/jason-s-yu/tabletop/internal/game"
	"github.com/jason-s-yu/tabletop/internal/lobby"
	"github.com/jason-s-yu/tabletop/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Server bundles the router and the coordinators it calls.
type Server struct {
	r          *chi.Mux
	cards      *game.CardInteractor
	decks      *game.DeckInteractor
	encounters *game.EncounterInteractor
	games      *game.GameInteractor
	lobbies    *lobby.LobbyManager
	signer     *auth.Signer
	hub        *Hub
	origin     string
	logger     *logrus.Logger
}

// Deps are the collaborators of a Server.
type Deps struct {
	Cards      *game.CardInteractor
	Decks      *game.DeckInteractor
	Encounters *game.EncounterInteractor
	Games      *game.GameInteractor
	Lobbies    *lobby.LobbyManager
	Signer     *auth.Signer
	Hub        *Hub
	// Origin is the allowed browser origin pattern for CORS and websockets.
	Origin string
	Logger *logrus.Logger
}

// NewServer installs middleware and registers every route.
func NewServer(d Deps) *Server {
	s := &Server{
		r:          chi.NewRouter(),
		cards:      d.Cards,
		decks:      d.Decks,
		encounters: d.Encounters,
		games:      d.Games,
		lobbies:    d.Lobbies,
		signer:     d.Signer,
		hub:        d.Hub,
		origin:     d.Origin,
		logger:     d.Logger,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(middleware.LogMiddleware(s.logger))
	s.r.Use(s.cors)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Route("/cards", func(r chi.Router) {
		r.With(chimw.Timeout(30*time.Second)).Group(func(r chi.Router) {
			r.Post("/import", s.handleImportCards)
			r.Post("/{code}/import", s.handleImportCard)
			r.Get("/{code}/image", s.handleCardImage)
		})
		r.Get("/", s.handleListCards)
		r.Get("/search", s.handleSearchCards)
		r.Get("/{code}", s.handleGetCard)
	})

	s.r.Route("/decks", func(r chi.Router) {
		r.Get("/", s.handleListDecks)
		r.Post("/", s.handleCreateDeck)
		r.With(chimw.Timeout(60*time.Second)).Post("/import", s.handleImportDeck)
		r.Get("/{id}", s.handleGetDeck)
		r.With(chimw.Timeout(60*time.Second)).Get("/{id}/cards", s.handleGetDeckWithCards)
		r.Put("/{id}", s.handleUpdateDeck)
		r.Delete("/{id}", s.handleDeleteDeck)
	})
	s.r.Get("/catalog/decks", s.handleCatalogDecks)
	s.r.With(chimw.Timeout(60*time.Second)).Get("/catalog/encounters/{code}", s.handleGetEncounterModule)

	s.r.Route("/encounters", func(r chi.Router) {
		r.Get("/", s.handleListEncounters)
		r.Get("/by-name/{name}", s.handleEncounterModulesByName)
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(60 * time.Second))
			r.Post("/", s.handleSaveEncounter)
			r.Post("/build", s.handleBuildEncounter)
			r.Get("/{id}", s.handleGetEncounter)
		})
	})

	s.r.Route("/games", func(r chi.Router) {
		r.Get("/", s.handleListGames)
		r.Post("/", s.handleCreateGame)
		r.Get("/recent", s.handleRecentGames)
		r.Get("/{id}", s.handleGetGame)
		r.Put("/{id}", s.handleSaveGame)
		r.Delete("/{id}", s.handleDeleteGame)
		r.Post("/{id}/actions", s.handleGameAction)
		r.Post("/{id}/seats", s.handleCreateSeat)
		r.Get("/{id}/ws", s.handleTableWS)
	})

	s.r.Route("/lobbies", func(r chi.Router) {
		r.Get("/", s.handleListLobbies)
		r.Post("/", s.handleCreateLobby)
		r.Get("/{id}", s.handleGetLobby)
		r.Delete("/{id}", s.handleDeleteLobby)
		r.Post("/{id}/join", s.handleJoinLobby)
		r.Post("/{id}/leave", s.handleLeaveLobby)
		r.Post("/{id}/deck", s.handleChooseDeck)
		r.Post("/{id}/ready", s.handleToggleReady)
		r.Post("/{id}/start", s.handleStartLobby)
		r.Get("/{id}/ws", s.handleLobbyWS)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no route for " + r.URL.Path})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Router exposes the router, mainly for tests.
func (s *Server) Router() chi.Router { return s.r }

// allowedOrigin matches the host of an Origin header against the configured pattern,
// using the same path.Match syntax as websocket.AcceptOptions.OriginPatterns.
func (s *Server) allowedOrigin(origin string) bool {
	if origin == "" || s.origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	ok, err := path.Match(s.origin, u.Host)
	return err == nil && ok
}

// cors allows credentialed requests from the configured origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); s.allowedOrigin(origin) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
