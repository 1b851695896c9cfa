package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
)

type Config struct {
	URL           string        `toml:"url" validate:"required,url"`
	APIVersion    string        `toml:"api_version" validate:"required,oneof=4"`
	Project       string        `toml:"project" validate:"required"`
	Branches      []string      `toml:"branches" validate:"required,dive,required"`
	System        System        `toml:"system" validate:"required,oneof=bump compare"`
	Version       string        `toml:"version"`
	Token         string        `toml:"token"`
	TokenType     TokenType     `toml:"token_type" validate:"required,oneof=private oauth"`
	VerifySSL     bool          `toml:"verify_ssl"`
	SubProject    string        `toml:"sub_project" validate:"required"`
	IncludeScopes []string      `toml:"include_scopes" validate:"dive,required"`
	File          string        `toml:"file" validate:"required"`
	BumpPrefix    string        `toml:"bump_prefix" validate:"required,excludesall=:"`
	PerPage       int           `toml:"per_page" validate:"min=1,max=100"`
	Timeout       time.Duration `toml:"timeout" validate:"gt=0"`
	WithIssues    bool          `toml:"with_issues"`
	Language      string        `toml:"language" validate:"oneof=en es"`
}

const (
	DefaultConfigFile = ".changegen.toml"

	defaultAPIVersion = "4"
	defaultFile       = "CHANGELOG.md"
	defaultBumpPrefix = "bump"
	defaultPerPage    = 20
	defaultTimeout    = 30 * time.Second
	defaultLang       = LangEN
)

var validate = newValidator()

// Default returns a configuration with every optional field set.
func Default() *Config {
	return &Config{
		APIVersion: defaultAPIVersion,
		System:     SystemBump,
		TokenType:  TokenPrivate,
		VerifySSL:  true,
		File:       defaultFile,
		BumpPrefix: defaultBumpPrefix,
		PerPage:    defaultPerPage,
		Timeout:    defaultTimeout,
		Language:   defaultLang,
	}
}

// LoadConfig returns the defaults overlaid with the TOML file at path. An
// empty path means DefaultConfigFile, which may be absent; an explicit path
// must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	required := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, domainErrors.ErrConfigFile.WithError(err).WithContext("file", path)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, domainErrors.ErrConfigFile.WithError(err).WithContext("file", path)
	}

	for _, key := range md.Undecoded() {
		slog.Warn("unknown configuration key ignored", "file", path, "key", key.String())
	}

	return cfg, nil
}

// Validate checks required fields, enumerations and that the number of
// branches fits the selected system.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domainErrors.ErrInvalidConfig.WithError(err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}

	appErr := domainErrors.ErrInvalidConfig.WithError(errors.New(strings.Join(msgs, "; ")))
	for _, fe := range fieldErrs {
		if fe.Field() == "api_version" {
			return domainErrors.ErrUnsupportedAPI.WithError(appErr.Err).WithContext("api_version", cfg.APIVersion)
		}
	}
	return appErr
}

// AllowedScopes is the configured scope allow-list plus the sub-project. A
// new slice is built on every call; the configuration is never mutated.
func (c *Config) AllowedScopes() []string {
	scopes := make([]string, 0, len(c.IncludeScopes)+1)
	scopes = append(scopes, c.IncludeScopes...)
	if c.SubProject != "" {
		scopes = append(scopes, c.SubProject)
	}
	return scopes
}

// ParseSSL interprets the --ssl flag: "false", "2" and "no" disable
// certificate verification, anything else enables it.
func ParseSSL(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "2", "no":
		return false
	default:
		return true
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(branchesMatchSystem, Config{})
	return v
}

func branchesMatchSystem(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	want := BranchCount(cfg.System)
	if len(cfg.Branches) > 0 && len(cfg.Branches) != want {
		sl.ReportError(cfg.Branches, "branches", "Branches", "branchcount", strconv.Itoa(want))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be an absolute URL including the protocol", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	case "branchcount":
		return fmt.Sprintf("%s expects exactly %s branch(es) for this system, got %d", fe.Field(), fe.Param(), reflect.ValueOf(fe.Value()).Len())
	case "excludesall":
		return fmt.Sprintf("%s must not contain %q", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
}
