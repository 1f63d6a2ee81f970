package quire

import (
	"log/slog"

	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/model"
)

// options holds session configuration
type options struct {
	headers        []model.SectionHeaders
	fontMetrics    measure.FontMetrics
	policy         Policy
	logger         *slog.Logger
	bodyTokens     bool
	digitBucketing bool
}

func defaultOptions() options {
	return options{
		policy:         DefaultPolicy(),
		bodyTokens:     false,
		digitBucketing: true,
	}
}

// Option configures a session
type Option func(*options)

// WithHeaders supplies per-section header/footer definitions, aligned with
// the section ranges by index.
func WithHeaders(headers []model.SectionHeaders) Option {
	return func(o *options) { o.headers = headers }
}

// WithFontMetrics injects the text-measurement primitive. The default is the
// embedded Go font family; embeddings with a platform text stack inject
// their own.
func WithFontMetrics(fm measure.FontMetrics) Option {
	return func(o *options) { o.fontMetrics = fm }
}

// WithPolicy replaces the operational policy (iteration budgets, warning
// thresholds, cache sizing).
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p.normalized() }
}

// WithBodyTokenResolution toggles PAGE/NUMPAGES resolution inside body
// content. Off by default; it is a rollback switch, not a correctness flag.
func WithBodyTokenResolution(enabled bool) Option {
	return func(o *options) { o.bodyTokens = enabled }
}

// WithDigitBucketing toggles digit-bucket keying of the header/footer cache
// for large documents. On by default.
func WithDigitBucketing(enabled bool) Option {
	return func(o *options) { o.digitBucketing = enabled }
}

// WithVerboseLogging enables diagnostic logging of token resolution and
// cache behavior to the given logger.
func WithVerboseLogging(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
