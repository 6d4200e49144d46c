package http

import (
	"context"
	stdhttp "net/http"
	"path/filepath"

	"github.com/dkeye/Poker/internal/adapters/signal"
	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	cookieName  = "PokerSessions"
	tokenKey    = "ct"
	tokenMaxAge = 3600 * 24 * 7
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable participant token kept
// in the signed session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(tokenKey).(string)
		if token == "" {
			token = genClientToken()
			s.Set(tokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set(signal.ClientTokenKey, token)
		c.Next()
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

type Deps struct {
	Orch     *app.Orchestrator
	Gatherer prometheus.Gatherer
	Version  string
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery(), SecurityHeaders())

	secret := cfg.Secret
	if secret == "" {
		secret = genClientToken() + genClientToken()
		log.Warn().Str("module", "adapters.http").Msg("no secret configured, cookies will not survive a restart")
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", MaxAge: tokenMaxAge, HttpOnly: true, SameSite: stdhttp.SameSiteLaxMode})
	r.Use(sessions.Sessions(cookieName, store))
	r.Use(ClientTokenMiddleware())

	index := filepath.Join(cfg.StaticPath, "index.html")
	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) { c.File(index) })
	r.GET("/session/:id", func(c *gin.Context) { c.File(index) })

	h := &Handlers{orch: deps.Orch, publicURL: cfg.PublicURL, version: deps.Version}
	ctrl := signal.NewSignalWSController(deps.Orch, signal.SettingsFromConfig(cfg))

	r.GET("/healthz", h.health)
	r.GET("/version", h.versionInfo)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/deck", h.deck)
	api.GET("/whoami", h.whoami)
	api.POST("/sessions", h.createSession)
	api.GET("/sessions/:id", h.getSession)
	api.DELETE("/sessions/:id", h.deleteSession)
	api.POST("/sessions/:id/join", h.joinSession)
	api.POST("/sessions/:id/reveal", h.revealSession)
	api.POST("/sessions/:id/reset", h.resetSession)
	api.GET("/sessions/:id/qr", h.qr)

	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("token", c.GetString(signal.ClientTokenKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
