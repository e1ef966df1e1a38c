package config

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation followed by the semantic checks.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.ValidationError("invalid configuration").
				WithContext("fields", strings.Join(msgs, "; ")).Build()
		}
		return errors.WrapError(err, errors.CategoryValidation, "invalid configuration").Fatal().Build()
	}
	return validateLocales(cfg)
}

func validateLocales(cfg *Config) error {
	if !cfg.Localized() {
		if cfg.DefaultLocale != "" {
			return errors.ValidationError("default_locale set without locales").
				WithContext("default_locale", cfg.DefaultLocale).Build()
		}
		if cfg.LocaleFallback == LocaleFallbackDefault {
			return errors.ValidationError("locale_fallback: default requires locales").Build()
		}
		return nil
	}
	if !slices.Contains(cfg.Locales, cfg.DefaultLocale) {
		return errors.ValidationError("default_locale must be one of locales").
			WithContext("default_locale", cfg.DefaultLocale).
			WithContext("locales", cfg.Locales).Build()
	}
	for _, l := range cfg.Locales {
		if strings.ContainsAny(l, `/\`) || strings.HasPrefix(l, ".") {
			return errors.ValidationError("locale is not a valid directory name").
				WithContext("locale", l).Build()
		}
	}
	return nil
}
