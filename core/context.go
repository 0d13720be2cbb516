// Package core supplies the ambient object every pass in the pipeline
// receives — catalog, configuration, logger, tracer, correlation id — in
// place of the original design's thread-local "active application"
// (spec.md Design Notes §9: "Replace with an explicit context object
// passed into the pipeline; every pass takes (&catalog, &config, &mut
// state)"). It also hosts the top-level Compile entrypoint and the Summon
// command dispatch table (spec.md §6).
package core

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/htscore/htscore/catalog"
)

// Config holds the compiler's own behavioural toggles, in the shape of the
// teacher's sqle.Config (engine.go): a plain struct of documented fields,
// not a general-purpose CLI/addon configuration loader (that remains out
// of scope, spec.md §1). It is also the one YAML-addressable object in this
// module (see LoadConfig), mirroring how the teacher's own top-level config
// is the thing an operator hand-edits, not the query-compilation internals.
type Config struct {
	// StrictConversions is a toggle for lossy numeric narrowing (e.g.
	// float -> integer). LoadConfig reads it, but no compiler pass consults
	// it: coerce.Binary behaves the same whatever its value.
	StrictConversions bool `yaml:"strict_conversions"`
	// DefaultRowLimit is a row limit for a query's outer segment when it has
	// none (a "tweak.autolimit"-style setting — see
	// original_source/src/htsql/tweak/autolimit/rewrite.py). LoadConfig reads
	// it, but no compiler pass applies it.
	DefaultRowLimit int `yaml:"default_row_limit"`
	// IdentityLabelSeparator is the separator for composite identity labels
	// rendered as text. LoadConfig reads it, but no code in this module
	// renders with it.
	IdentityLabelSeparator string `yaml:"identity_label_separator"`
}

// DefaultConfig returns the zero-friendly default configuration.
func DefaultConfig() *Config {
	return &Config{
		StrictConversions:      false,
		DefaultRowLimit:        0,
		IdentityLabelSeparator: ".",
	}
}

// LoadConfig reads a YAML document from r into a Config seeded with
// DefaultConfig's values, so a document that only overrides one field still
// leaves the others at their documented default -- an operator's config
// file is ordinarily an overlay, not a full restatement.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "core: reading config")
	}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, errors.Wrap(err, "core: parsing config")
	}
	return cfg, nil
}

// Context is the explicit, per-compilation context threaded through every
// pass: (&ctx.Catalog, &ctx.Config, &mut state). It is built once per
// compilation and is never shared across queries (spec.md §5).
type Context struct {
	Catalog *catalog.Catalog
	Config  *Config
	Log     *logrus.Entry
	Tracer  opentracing.Tracer
	// CorrelationID identifies this compilation for log/trace correlation;
	// it plays no role in compiler semantics.
	CorrelationID string
}

// New builds a Context for one compilation. cat must already be frozen
// (introspected) by the external caller; the compiler never mutates it.
func New(cat *catalog.Catalog, cfg *Config, log *logrus.Logger, tracer opentracing.Tracer) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}
	u, err := uuid.NewV4()
	if err != nil {
		u = uuid.NewV5(uuid.NamespaceOID, "htscore.core.Context")
	}
	id := u.String()
	var entry *logrus.Entry
	if log != nil {
		entry = log.WithField("compilation", id)
	} else {
		entry = logrus.NewEntry(logrus.StandardLogger()).WithField("compilation", id)
	}
	return &Context{
		Catalog:       cat,
		Config:        cfg,
		Log:           entry,
		Tracer:        tracer,
		CorrelationID: id,
	}
}

// StartSpan opens a span on the context's tracer; Compile opens one
// ("compile") per compilation, matching the teacher's server-side
// span-per-request idiom (opentracing used in
// server/handler_*.go and enginetest/engine_test.go).
func (c *Context) StartSpan(operationName string) opentracing.Span {
	return c.Tracer.StartSpan(operationName)
}
