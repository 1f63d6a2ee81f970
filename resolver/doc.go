// Package resolver resolves page-number tokens in headers, footers, and
// (optionally) body content by iterating measurement and pagination to a
// fixed point.
//
// Header/footer content may contain PAGE and NUMPAGES tokens whose rendered
// width changes with digit count, which can change the space reserved for
// the header/footer, which can change where pages break, which can change
// page numbers. The [Resolver] runs an explicit bounded loop:
//
//  1. Paginate once with placeholder reservations.
//  2. Select the header/footer variant for each page and substitute literal
//     token text into block copies.
//  3. Re-measure only blocks whose resolved text changed.
//  4. Re-paginate with the updated reservations.
//  5. Repeat until resolved text and page count stop changing, or the
//     iteration budget runs out.
//
// When the budget is exhausted, the last computed state is used and a
// degraded-mode warning is recorded; token resolution never fails a
// document. A document with no page-number tokens resolves in zero
// iterations.
//
// Resolved header/footer layouts are memoized in a [hfcache.Cache] keyed by
// (variant, page number or digit bucket); the resolver consults it before
// measuring.
package resolver
