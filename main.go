package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/asset"
	"github.com/debemdeboas/quill/internal/auth"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/logger"
	"github.com/debemdeboas/quill/internal/metrics"
	"github.com/debemdeboas/quill/internal/posts"
	"github.com/debemdeboas/quill/internal/render"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/routes"
)

//go:embed templates/*
var content embed.FS

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	asset.SetLogger(l.With().Str("component", "asset").Logger())
	auth.SetLogger(l.With().Str("component", "auth").Logger())
	api.SetLogger(l.With().Str("component", "api").Logger())
	posts.SetLogger(l.With().Str("component", "posts").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := config.LoadConfig(config.ConfigPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	log := logger.New(cfg.Logging.Level)
	setLoggers(log)

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	database := db.NewSQLite(cfg.Database.Path)
	if err := database.InitDb(); err != nil {
		log.Fatal().Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up asset store")
	}

	handler, err := newServer(cfg, log, database, store, content)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up server")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().
		Str("addr", srv.Addr).
		Str("assets", cfg.Assets.Backend).
		Str("renderer", cfg.Content.MarkdownRenderer).
		Msg("Server starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}

func newAssetStore(ctx context.Context, cfg *config.Config) (asset.Store, error) {
	switch cfg.Assets.Backend {
	case config.AssetBackendS3:
		return asset.NewS3Store(ctx, cfg.Assets.S3, cfg.Assets.PublicBaseURL)
	default:
		return asset.NewFSStore(cfg.Assets.UploadDir, cfg.Assets.PublicBaseURL), nil
	}
}

// newServer wires every route and the middleware chain around them.
func newServer(cfg *config.Config, log zerolog.Logger, database db.DB, store asset.Store, templates fs.FS) (http.Handler, error) {
	gate, err := auth.NewGate(cfg.Auth)
	if err != nil {
		return nil, err
	}

	svc := posts.NewService(repository.NewDBPostRepository(database), cfg.Content)
	pages, err := posts.NewHandler(svc, render.New(cfg), templates)
	if err != nil {
		return nil, err
	}
	resolver := asset.NewResolver(store, cfg.Assets)

	admin := func(h http.HandlerFunc) http.Handler { return auth.RequireAdmin(h) }

	mux := http.NewServeMux()

	mux.HandleFunc(routes.RobotsPath, posts.ServeRobots)
	mux.Handle(routes.MetricsPath, metrics.Handler())
	mux.HandleFunc(routes.SyntaxThemeGet, pages.ServeSyntaxCSS)
	if cfg.Assets.Backend != config.AssetBackendS3 {
		mux.Handle(routes.UploadsPath, http.StripPrefix(config.UploadsUrlPath, http.FileServer(http.Dir(cfg.Assets.UploadDir))))
	}

	mux.HandleFunc(routes.Index, pages.ServeIndex)
	mux.HandleFunc(routes.Post, pages.ServePost)
	mux.HandleFunc(routes.PostSource, pages.ServePostSource)

	mux.HandleFunc(routes.Login, auth.LoginHandler(gate))
	mux.Handle(routes.AssetUpload, admin(asset.UploadHandler(resolver)))
	mux.Handle(routes.PostCreate, admin(pages.CreatePost))
	mux.HandleFunc(routes.PostList, pages.ListPosts)
	mux.Handle(routes.PostDeleted, admin(pages.ListDeletedPosts))
	mux.HandleFunc(routes.PostGet, pages.GetPost)
	mux.Handle(routes.PostUpdate, admin(pages.UpdatePost))
	mux.Handle(routes.PostDelete, admin(pages.DeletePost))
	mux.Handle(routes.PostRestore, admin(pages.RestorePost))

	mux.HandleFunc("/", pages.ServeNotFound)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{config.HAuthorization, config.HCType},
		AllowCredentials: true,
	})

	var h http.Handler = mux
	h = gate.WithSession()(h)
	h = c.Handler(h)
	h = midWithSecureHeaders(h)
	h = metrics.Instrument(h)
	h = logger.Middleware(log)(h)
	return h, nil
}

func midWithSecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
