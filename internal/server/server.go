// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/agent"
	"github.com/curatai/curatai/internal/assistant"
	"github.com/curatai/curatai/internal/common/httpx"
	"github.com/curatai/curatai/internal/common/logtrace"
	"github.com/curatai/curatai/internal/common/middleware"
	"github.com/curatai/curatai/internal/telemetry"
)

const (
	ServerVersion = "CuratAI Chat Server: 0.1.0"
	APIVersion    = "v1"

	// Conversations idle for longer than ConversationTTL are dropped.
	ConversationTTL = 2 * time.Hour
	sweepInterval   = 10 * time.Minute
)

type ChatServer struct {
	Router        *chi.Mux
	assistant     *assistant.Assistant
	conversations *agent.ConversationStore
	handleCORS    bool
}

func CreateNewServer(a *assistant.Assistant) (*ChatServer, error) {
	if a == nil || a.Driver == nil || a.Registry == nil {
		return nil, fmt.Errorf("server requires an assembled assistant")
	}
	s := &ChatServer{
		assistant:     a,
		conversations: agent.NewConversationStore(),
	}
	if a.Config != nil {
		s.handleCORS = a.Config.Server.HandleCORS
	}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *ChatServer) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	s.Router.Use(telemetry.Middleware("curatai"))
	if s.handleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.mountResourceHandlers(s.Router)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in chat router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("Error walking router")
		}
	}
}

func (s *ChatServer) mountResourceHandlers(r chi.Router) {
	r.Post("/chat", httpx.WrapHttpRsp(s.chat))
	r.Post("/chat/stream", s.chatStream)
	r.Get("/tools", s.listTools)
	r.Get("/version", s.getVersion)
	r.Get("/ready", s.getReadiness)
	r.Handle("/metrics", s.assistant.Metrics.Handler())
}

// SweepConversations drops idle conversations until ctx is done.
func (s *ChatServer) SweepConversations(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.conversations.Expire(ConversationTTL); n > 0 {
				log.Info().Int("expired", n).Msg("dropped idle conversations")
			}
		}
	}
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *ChatServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: ServerVersion,
		ApiVersion:    APIVersion,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *ChatServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("Readiness check")
	if s.assistant.Session != nil {
		if _, err := s.assistant.Session.Ensure(r.Context()); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("catalog session is not usable")
			httpx.ErrServiceUnavailable("catalog session is not usable").Send(w)
			return
		}
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *ChatServer) listTools(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, s.assistant.Registry.Specs())
}

func (s *ChatServer) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
