// Package extract turns raw paper text into a structural section
// decomposition. Detection is heuristic: header signature patterns
// over the plain text, optionally combined with visual layout hints
// when the source could observe the rendered pages, and a dedicated
// parser for LaTeX source bundles.
//
// The package is pure: no I/O besides reading the provided bytes,
// no external services.
package extract
