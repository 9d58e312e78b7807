// Package uievolve discovers interesting UI test sequences by evolving
// variable-length action chromosomes against a live web page.
//
// A run crawls the target page for an action catalog, then breeds
// populations of action sequences, executing each one in a fresh browser
// session and scoring its trace by the novelty it uncovered: distinct
// URLs, distinct page states and distinct error signatures, less a
// length penalty.
//
// Key Components:
//
//   - catalog: the atomic UI actions discovered on the target page and
//     the selectors that address them.
//
//   - genome: variable-length chromosomes over the catalog, with
//     mutation operators and context-aware crossover that prefers to cut
//     at observed page-state boundaries.
//
//   - fitness: the pure trace-to-score evaluator.
//
//   - engine: the generational loop with tournament selection, elitism,
//     a best-ever record and patience-based early stopping.
//
//   - runner: chromedp-backed execution of a chromosome in an isolated
//     browser session, collecting page visits and error signatures into
//     a trace.
//
//   - crawler: catalog discovery for a target page.
//
//   - archive: evaluation deduplication and a durable SQLite record of
//     every run.
//
//   - codegen: export of an evolved sequence as a standalone replay
//     program.
package uievolve
