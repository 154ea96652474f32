package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/config"
	"github.com/Sumatoshi-tech/codemod/pkg/migrate"
	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/build"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/version"
)

// ErrUnknownLanguage is returned when the configured language has no catalog.
var ErrUnknownLanguage = errors.New("no catalog for language")

// app is the per-command environment: configuration, catalogs and telemetry.
type app struct {
	cfg       *config.Config
	catalogs  *catalog.Registry
	language  string
	providers observability.Providers
	runner    *migrate.Runner
	logger    *slog.Logger
	quiet     bool
}

func newApp(cmd *cobra.Command, flags *globalFlags, mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability(version.Version, mode)
	obsCfg.LogWriter = cmd.ErrOrStderr()

	switch {
	case flags.verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	case flags.quiet:
		obsCfg.LogLevel = slog.LevelWarn
	}

	catalogs := catalog.NewRegistry(catalog.Default())

	if cfg.Catalog.Path != "" {
		extra, loadErr := catalog.LoadFile(cfg.Catalog.Path)
		if loadErr != nil {
			return nil, loadErr
		}

		catalogs.Register(extra)
	}

	language := cfg.Catalog.Language
	if flags.language != "" {
		language = flags.language
	}

	if language != "" {
		if _, ok := catalogs.Lookup(language); !ok {
			return nil, fmt.Errorf("%w: %s (have %v)", ErrUnknownLanguage, language, catalogs.Languages())
		}
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &app{
		cfg:       cfg,
		catalogs:  catalogs,
		language:  language,
		providers: providers,
		runner:    migrate.NewRunner(providers.Logger, providers.Tracer, providers.Metrics),
		logger:    providers.Logger,
		quiet:     flags.quiet,
	}, nil
}

func (a *app) close(ctx context.Context) error {
	return a.providers.Shutdown(ctx)
}

// document is a loaded parser document.
type document struct {
	// path is the input as given on the command line.
	path string
	// name is the source file the document describes.
	name    string
	raw     any
	source  string
	catalog *catalog.Catalog
	size    int
}

// readDocument reads and decodes a parser document without building it.
func (a *app) readDocument(stdin io.Reader, path string) (*document, error) {
	data, err := readInput(stdin, path, a.cfg.Migrate.MaxFileSizeBytes())
	if err != nil {
		return nil, err
	}

	raw, source, err := build.DecodeDocument(data, path)
	if err != nil {
		return nil, err
	}

	name := sourceName(path)

	cat, err := a.catalogFor(name, source)
	if err != nil {
		return nil, err
	}

	return &document{path: path, name: name, raw: raw, source: source, catalog: cat, size: len(data)}, nil
}

// load reads a parser document and builds its tree. With catalog.strict the
// document is checked against the catalog's schema first.
func (a *app) load(stdin io.Reader, path string) (*document, node.Node, error) {
	doc, err := a.readDocument(stdin, path)
	if err != nil {
		return nil, nil, err
	}

	if a.cfg.Catalog.Strict {
		result, validateErr := build.Validate(doc.catalog, doc.raw)
		if validateErr != nil {
			return nil, nil, validateErr
		}

		validateErr = build.ValidationError(path, result)
		if validateErr != nil {
			return nil, nil, withExitCode(exitCodeValidationFailure, validateErr)
		}
	}

	tree, err := build.New(doc.catalog).FromDecoded(doc.raw, doc.source, path)
	if err != nil {
		return nil, nil, withExitCode(exitCodeValidationFailure, err)
	}

	a.logger.Debug("document loaded",
		"path", path,
		"catalog", doc.catalog.Language,
		"bytes", doc.size,
	)

	return doc, tree, nil
}

func (a *app) catalogFor(name, source string) (*catalog.Catalog, error) {
	if a.language != "" {
		cat, _ := a.catalogs.Lookup(a.language)

		return cat, nil
	}

	return a.catalogs.ForFile(name, []byte(source))
}

// migrations resolves names against the built-in registry; empty names fall
// back to the configured list, then to every migration.
func (a *app) migrations(names []string) ([]migrate.Migration, error) {
	if len(names) == 0 {
		names = a.cfg.Migrate.Migrations
	}

	return migrate.Default().Select(names)
}
