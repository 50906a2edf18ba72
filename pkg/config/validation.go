package config

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/jingkaihe/streamstat/internal/errx"
	"github.com/jingkaihe/streamstat/pkg/perf"
)

var validate = validator.New()

// Validate checks struct tags and the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	for name := range cfg.FileIO.Weights {
		if _, err := perf.ParseOp(name); err != nil {
			return errx.With(ErrInvalid, ": fileio.weights: %v", err)
		}
	}

	seen := make(map[string]bool, len(cfg.HTTP.Schemes))
	for i, s := range cfg.HTTP.Schemes {
		if seen[s] {
			return errx.With(ErrInvalid, ": http.schemes[%d]: duplicate scheme %q", i, s)
		}
		seen[s] = true
	}
	return nil
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return errx.With(ErrInvalid, ": %s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return errx.Wrap(ErrInvalid, err)
}
