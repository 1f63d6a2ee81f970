// Package measure implements block measurement: given a block and an
// available width, it produces line-level geometry without any knowledge of
// pages.
//
// Measurement is a pure function of its inputs. The [Engine] never mutates
// the block it measures and never fails for well-formed input; a block that
// cannot be measured (unknown font, zero-length content) yields a single
// zero-height line so pagination above it can proceed.
//
// # Text metrics
//
// The width of a piece of text is answered by an injected [FontMetrics]
// implementation, which may be backed by a platform text stack or may block
// on an external provider. [GoFontMetrics] is the default pure-Go
// implementation, backed by the Go font family.
//
// # Indents
//
// Paragraph indents follow the source format's semantics: positive left or
// right indents shrink the available width, negative values extend content
// into the page margin and so widen it. See [ParagraphWidths].
package measure
