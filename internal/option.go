package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config

	// Build mode.
	outDir string
	drafts bool

	// Check mode.
	strict bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithOutputDir sets the directory the static site build writes into.
func WithOutputDir(dir string) Option {
	return func(a *application) {
		a.outDir = dir
	}
}

// WithDrafts includes draft documents in the static site build.
func WithDrafts(include bool) Option {
	return func(a *application) {
		a.drafts = include
	}
}

// WithStrict makes check mode fail on warnings, not just errors.
func WithStrict(strict bool) Option {
	return func(a *application) {
		a.strict = strict
	}
}
