package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/text/language"

	"github.com/sharetube/roomtracks/internal/controller"
	"github.com/sharetube/roomtracks/internal/nowplaying"
	"github.com/sharetube/roomtracks/internal/relay"
	"github.com/sharetube/roomtracks/internal/repository/connection/inmemory"
	roomredis "github.com/sharetube/roomtracks/internal/repository/room/redis"
	"github.com/sharetube/roomtracks/internal/service/export"
	"github.com/sharetube/roomtracks/internal/service/room"
	"github.com/sharetube/roomtracks/pkg/ctxlogger"
	"github.com/sharetube/roomtracks/pkg/redisclient"
	"github.com/sharetube/roomtracks/pkg/ytvideodata"
)

const (
	ExportBackendNone    = ""
	ExportBackendYouTube = "youtube"
	ExportBackendProxy   = "proxy"

	youtubeScope = "https://www.googleapis.com/auth/youtube"
)

type AppConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	RedisPort         int           `json:"redis_port"`
	RedisHost         string        `json:"redis_host"`
	RedisPassword     string        `json:"-"`
	LinkMirrorTTL     time.Duration `json:"link_mirror_ttl"`
	RelayPollInterval time.Duration `json:"relay_poll_interval"`
	Locale            string        `json:"locale"`
	MetadataLookup    bool          `json:"metadata_lookup"`
	ExportBackend     string        `json:"export_backend"`
	ExportPacing      time.Duration `json:"export_pacing"`
	ProxyURL          string        `json:"proxy_url"`
	OAuthClientID     string        `json:"oauth_client_id"`
	OAuthClientSecret string        `json:"-"`
	OAuthRefreshToken string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if cfg.RelayPollInterval <= 0 {
		return errors.New("relay poll interval must be greater than 0")
	}
	if cfg.LinkMirrorTTL < 0 {
		return errors.New("link mirror ttl must not be negative")
	}
	if cfg.Locale != "" {
		if _, err := language.Parse(cfg.Locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
		}
	}

	switch cfg.ExportBackend {
	case ExportBackendNone:
		return nil
	case ExportBackendProxy:
		if cfg.ProxyURL == "" {
			return errors.New("proxy url is required for the proxy export backend")
		}
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid proxy url %q", cfg.ProxyURL)
		}
	case ExportBackendYouTube:
		if cfg.OAuthClientID == "" || cfg.OAuthClientSecret == "" || cfg.OAuthRefreshToken == "" {
			return errors.New("oauth client id, client secret and refresh token are required for the youtube export backend")
		}
	default:
		return fmt.Errorf("unknown export backend %q", cfg.ExportBackend)
	}

	if cfg.ExportPacing <= 0 {
		return errors.New("export pacing must be greater than 0")
	}

	return nil
}

type server struct {
	handler http.Handler
	relay   *relay.Relay
}

// newExportBackend returns nil when exporting is disabled.
func newExportBackend(cfg *AppConfig) (export.Backend, bool) {
	switch cfg.ExportBackend {
	case ExportBackendYouTube:
		return export.NewYouTubeBackend(&export.YouTubeConfig{
			OAuth: &oauth2.Config{
				ClientID:     cfg.OAuthClientID,
				ClientSecret: cfg.OAuthClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{youtubeScope},
			},
			RefreshToken: cfg.OAuthRefreshToken,
		}), true
	case ExportBackendProxy:
		return export.NewProxyBackend(&export.ProxyConfig{BaseURL: cfg.ProxyURL}), false
	default:
		return nil, false
	}
}

func newServer(ctx context.Context, cfg *AppConfig, rc *redis.Client, logger *slog.Logger) (*server, error) {
	roomRepo := roomredis.NewRepo(rc, cfg.LinkMirrorTTL, logger)

	roomConfig := &room.Config{Locale: cfg.Locale}
	if cfg.MetadataLookup {
		roomConfig.Metadata = ytvideodata.New(nil)
	}
	roomService := room.NewService(roomRepo, roomConfig, logger)
	if err := roomService.EnsureDefaults(ctx); err != nil {
		return nil, fmt.Errorf("failed to store default settings: %w", err)
	}
	if active, err := roomService.GetActiveRoom(ctx); err != nil {
		logger.WarnContext(ctx, "failed to restore active room", "error", err)
	} else if active.ID != "" {
		logger.InfoContext(ctx, "restored active room", "room_id", active.ID, "room_name", active.Name, "tracks", active.TrackCount)
	}

	connectionRepo := inmemory.NewRepo(logger)
	linkRelay := relay.New(connectionRepo, roomRepo, logger)
	reconciler := nowplaying.NewReconciler(func(snapshot nowplaying.Snapshot) {
		linkRelay.Publish(context.Background(), snapshot.ContextID, snapshot.Link())
	}, logger)
	// forgotten contexts start over with a fresh session
	linkRelay.OnForget(reconciler.OnContextDestroyed)

	params := &controller.Params{
		RoomService: roomService,
		Relay:       linkRelay,
		Reconciler:  reconciler,
		Connections: connectionRepo,
		Logger:      logger,
	}
	if backend, requireLinking := newExportBackend(cfg); backend != nil {
		params.Export = export.NewGateway(backend, roomService, roomService, &export.Config{
			Pacing:         cfg.ExportPacing,
			RequireLinking: requireLinking,
		}, logger)
	}

	return &server{
		handler: controller.NewController(params).GetMux(),
		relay:   linkRelay,
	}, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	srv, err := newServer(ctx, cfg, rc, logger)
	if err != nil {
		return err
	}

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: srv.handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	go srv.relay.Run(serverCtx, cfg.RelayPollInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "export_backend", cfg.ExportBackend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
