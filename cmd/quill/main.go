// Command quill is the publishing client: it logs in, uploads a draft's
// images, submits the post and reads posts back.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/debemdeboas/quill/internal/asset"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/logger"
	"github.com/debemdeboas/quill/internal/publish"
	"github.com/debemdeboas/quill/internal/render"
	"github.com/debemdeboas/quill/internal/upload"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true)
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "quill",
		Usage: "publish posts with pictures to a quill server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the config file",
				Value:   config.DefaultConfigPath,
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:    "server",
				Usage:   "server base URL (overrides gateway.base_url)",
				EnvVars: []string{config.EnvGatewayURL},
			},
			&cli.StringFlag{
				Name:  "token-file",
				Usage: "where the session token is kept (overrides gateway.token_file)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (overrides logging.level)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "start an admin session",
				Action: runLogin,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "admin user name"},
					&cli.StringFlag{Name: "password", Usage: "admin password (prompted when empty)", EnvVars: []string{config.EnvAdminPassword}},
				},
			},
			{
				Name:      "publish",
				Usage:     "upload a draft's images and create the post",
				ArgsUsage: " ",
				Action:    runPublish,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "post title (defaults to the front matter title)"},
					&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "file holding the post body", Required: true},
					&cli.StringSliceFlag{Name: "asset", Aliases: []string{"a"}, Usage: "image referenced by the body; repeatable"},
					&cli.BoolFlag{Name: "compress", Usage: "send the body gzip-base64 encoded"},
				},
			},
			{
				Name:      "edit",
				Usage:     "replace a post's title and body, uploading any new images",
				ArgsUsage: "ID",
				Action:    runEdit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "new title (defaults to the front matter title, then the current one)"},
					&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "file holding the new body", Required: true},
					&cli.StringSliceFlag{Name: "asset", Aliases: []string{"a"}, Usage: "image referenced by the body; repeatable"},
					&cli.BoolFlag{Name: "compress", Usage: "send the body gzip-base64 encoded"},
				},
			},
			{
				Name:   "list",
				Usage:  "list posts, newest first",
				Action: runList,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "deleted", Usage: "list deleted posts instead"},
				},
			},
			{
				Name:      "show",
				Usage:     "fetch a post and render it locally",
				ArgsUsage: "ID",
				Action:    runShow,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "source", Usage: "print the stored body instead of HTML"},
				},
			},
			{
				Name:      "delete",
				Usage:     "hide a post from the index",
				ArgsUsage: "ID",
				Action:    runDelete,
			},
			{
				Name:      "restore",
				Usage:     "bring a deleted post back",
				ArgsUsage: "ID",
				Action:    runRestore,
			},
		},
	}
}

func setup(cctx *cli.Context) error {
	if err := config.LoadConfig(cctx.String("config")); err != nil {
		return err
	}
	cfg := config.AppConfig

	if s := cctx.String("server"); s != "" {
		cfg.Gateway.BaseURL = s
	}
	if f := cctx.String("token-file"); f != "" {
		cfg.Gateway.TokenFile = f
	}
	level := cfg.Logging.Level
	if l := cctx.String("log-level"); l != "" {
		level = l
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l := logger.New(level)
	setLoggers(l)
	return nil
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l)
	asset.SetLogger(l.With().Str("component", "asset").Logger())
	upload.SetLogger(l.With().Str("component", "upload").Logger())
	publish.SetLogger(l.With().Str("component", "publish").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())
}
