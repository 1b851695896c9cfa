package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/thomas-vilte/changegen/internal/commands/generate"
	cfg "github.com/thomas-vilte/changegen/internal/config"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/i18n"
	"github.com/thomas-vilte/changegen/internal/ui"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(langFromEnv()), "")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error loading translations: %v\n", err)
		os.Exit(exitFailure)
	}

	app := generate.NewGenerateCommandFactory().CreateCommand(translations)

	if err := app.Run(context.Background(), os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration problems to a usage error and every other
// failure to a generic one.
func exitCode(err error) int {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) && appErr.Type == domainErrors.TypeConfiguration {
		return exitUsage
	}
	return exitFailure
}

func langFromEnv() string {
	if lang := os.Getenv("CHANGEGEN_LANG"); lang != "" {
		return lang
	}
	return cfg.LangEN
}
