package generate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/thomas-vilte/changegen/internal/changelog"
	cfg "github.com/thomas-vilte/changegen/internal/config"
	"github.com/thomas-vilte/changegen/internal/i18n"
	"github.com/thomas-vilte/changegen/internal/logger"
	"github.com/thomas-vilte/changegen/internal/services"
	"github.com/thomas-vilte/changegen/internal/ui"
	"github.com/thomas-vilte/changegen/internal/vcs/gitlab"
	"github.com/thomas-vilte/changegen/internal/version"
	"github.com/urfave/cli/v3"
)

// changelogGenerator is a minimal interface for testing purposes
type changelogGenerator interface {
	Generate(ctx context.Context, req services.GenerateRequest) (*services.GenerateResult, error)
}

// GeneratorFactory builds the generator for a validated configuration.
type GeneratorFactory func(config *cfg.Config) (changelogGenerator, error)

type GenerateCommandFactory struct {
	newGenerator GeneratorFactory
	out          io.Writer
}

type Option func(*GenerateCommandFactory)

// WithGeneratorFactory replaces the GitLab backed generator.
func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(g *GenerateCommandFactory) {
		g.newGenerator = f
	}
}

// WithOutput redirects the progress and confirmation output.
func WithOutput(w io.Writer) Option {
	return func(g *GenerateCommandFactory) {
		g.out = w
	}
}

func NewGenerateCommandFactory(opts ...Option) *GenerateCommandFactory {
	g := &GenerateCommandFactory{
		newGenerator: newGitLabGenerator,
		out:          os.Stdout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateCommand returns the command that updates the changelog. It is meant
// to be used as the root command, so every flag lives at the top level.
func (g *GenerateCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:        "changegen",
		Usage:       t.GetMessage("app_usage", 0, nil),
		Description: t.GetMessage("app_description", 0, nil),
		Flags:       flags(t),
		Before:      setupLogger,
		Action:      g.generateAction(t),
		Commands: []*cli.Command{
			g.newVersionCommand(t),
		},
	}
}

// setupLogger installs the logger selected by --debug and --verbose and tags
// every record of the run with a run_id.
func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))
	return logger.WithLogger(ctx, slog.Default().With("run_id", uuid.NewString())), nil
}

func (g *GenerateCommandFactory) newVersionCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: t.GetMessage("version_command_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(g.out, "changegen "+version.FullVersion())
			return err
		},
	}
}

func flags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "ip",
			Aliases: []string{"i", "url"},
			Usage:   t.GetMessage("flag_ip", 0, nil),
		},
		&cli.StringFlag{
			Name:    "api",
			Aliases: []string{"a"},
			Usage:   t.GetMessage("flag_api", 0, nil),
			Value:   "4",
		},
		&cli.StringFlag{
			Name:    "project",
			Aliases: []string{"p"},
			Usage:   t.GetMessage("flag_project", 0, nil),
		},
		&cli.StringSliceFlag{
			Name:    "branches",
			Aliases: []string{"b"},
			Usage:   t.GetMessage("flag_branches", 0, nil),
		},
		&cli.StringFlag{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   t.GetMessage("flag_version", 0, nil),
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   t.GetMessage("flag_token", 0, nil),
			Sources: cli.EnvVars("GITLAB_TOKEN"),
		},
		&cli.StringFlag{
			Name:  "token-type",
			Usage: t.GetMessage("flag_token_type", 0, nil),
			Value: string(cfg.TokenPrivate),
		},
		&cli.StringFlag{
			Name:    "ssl",
			Aliases: []string{"s"},
			Usage:   t.GetMessage("flag_ssl", 0, nil),
			Value:   "true",
		},
		&cli.StringFlag{
			Name:    "subproject",
			Aliases: []string{"sp"},
			Usage:   t.GetMessage("flag_subproject", 0, nil),
		},
		&cli.StringSliceFlag{
			Name:  "scope",
			Usage: t.GetMessage("flag_scope", 0, nil),
		},
		&cli.StringFlag{
			Name:  "system",
			Usage: t.GetMessage("flag_system", 0, nil),
			Value: string(cfg.SystemBump),
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   t.GetMessage("flag_file", 0, nil),
			Value:   "CHANGELOG.md",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   t.GetMessage("flag_config", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "issues",
			Usage: t.GetMessage("flag_issues", 0, nil),
		},
		&cli.IntFlag{
			Name:  "per-page",
			Usage: t.GetMessage("flag_per_page", 0, nil),
			Value: 20,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: t.GetMessage("flag_timeout", 0, nil),
			Value: 30 * time.Second,
		},
		&cli.StringFlag{
			Name:  "bump-prefix",
			Usage: t.GetMessage("flag_bump_prefix", 0, nil),
			Value: "bump",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: t.GetMessage("flag_debug", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: t.GetMessage("flag_verbose", 0, nil),
		},
		&cli.StringFlag{
			Name:  "lang",
			Usage: t.GetMessage("flag_lang", 0, nil),
			Value: cfg.LangEN,
		},
	}
}

func (g *GenerateCommandFactory) generateAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		log := logger.FromContext(ctx)
		start := time.Now()

		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if t != nil && config.Language != cfg.LangEN {
			if err := t.SetLanguage(cfg.GetLocaleConfig(config.Language)); err != nil {
				log.Warn("could not switch language", "language", config.Language, "error", err)
			}
		}

		log.Info("executing generate command",
			"project", config.Project,
			"system", config.System,
			"branches", config.Branches,
			"file", config.File)

		generator, err := g.newGenerator(config)
		if err != nil {
			return err
		}

		req := services.GenerateRequest{
			Project:       config.Project,
			Branches:      config.Branches,
			Variant:       changelog.Variant(config.System),
			Version:       config.Version,
			File:          config.File,
			AllowedScopes: config.AllowedScopes(),
			WithIssues:    config.WithIssues,
		}

		var result *services.GenerateResult
		err = ui.WithSpinner(g.out, t.GetMessage("collecting_commits", 0, struct{ Project string }{config.Project}), "", func() error {
			var genErr error
			result, genErr = generator.Generate(ctx, req)
			return genErr
		})
		if err != nil {
			log.Error("changelog generation failed",
				"error", err,
				"duration_ms", time.Since(start).Milliseconds())
			return err
		}

		ui.PrintInfo(g.out, t.GetMessage("commits_collected", result.Commits, struct{ Count int }{result.Commits}))
		ui.PrintKeyValue(g.out, "version", result.Previous+" → "+result.Version)
		ui.PrintSuccess(g.out, t.GetMessage("changelog_updated", 0, struct{ File string }{result.File}))

		log.Info("generate command completed successfully",
			"version", result.Version,
			"commits", result.Commits,
			"issues", result.Issues,
			"duration_ms", time.Since(start).Milliseconds())

		return nil
	}
}

// loadConfig layers the command line over the configuration file and the
// defaults, then validates the result.
func loadConfig(cmd *cli.Command) (*cfg.Config, error) {
	config, err := cfg.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("ip") {
		config.URL = cmd.String("ip")
	}
	if cmd.IsSet("api") {
		config.APIVersion = cmd.String("api")
	}
	if cmd.IsSet("project") {
		config.Project = cmd.String("project")
	}
	if cmd.IsSet("branches") {
		config.Branches = cmd.StringSlice("branches")
	}
	if cmd.IsSet("version") {
		config.Version = cmd.String("version")
	}
	if cmd.IsSet("token") {
		config.Token = cmd.String("token")
	}
	if cmd.IsSet("token-type") {
		config.TokenType = cfg.TokenType(cmd.String("token-type"))
	}
	if cmd.IsSet("ssl") {
		config.VerifySSL = cfg.ParseSSL(cmd.String("ssl"))
	}
	if cmd.IsSet("subproject") {
		config.SubProject = cmd.String("subproject")
	}
	if cmd.IsSet("scope") {
		config.IncludeScopes = cmd.StringSlice("scope")
	}
	if cmd.IsSet("system") {
		config.System = cfg.System(cmd.String("system"))
	}
	if cmd.IsSet("file") {
		config.File = cmd.String("file")
	}
	if cmd.IsSet("issues") {
		config.WithIssues = cmd.Bool("issues")
	}
	if cmd.IsSet("per-page") {
		config.PerPage = cmd.Int("per-page")
	}
	if cmd.IsSet("timeout") {
		config.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("bump-prefix") {
		config.BumpPrefix = cmd.String("bump-prefix")
	}
	if cmd.IsSet("lang") {
		config.Language = cmd.String("lang")
	}

	if err := cfg.Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func newGitLabGenerator(config *cfg.Config) (changelogGenerator, error) {
	client, err := gitlab.NewClient(gitlab.Config{
		BaseURL:   config.URL,
		Token:     config.Token,
		TokenType: string(config.TokenType),
		VerifySSL: config.VerifySSL,
		Timeout:   config.Timeout,
		PerPage:   config.PerPage,
	})
	if err != nil {
		return nil, err
	}

	return services.NewChangelogService(client,
		services.WithCollectorOptions(services.WithBumpPrefix(config.BumpPrefix)),
	), nil
}
