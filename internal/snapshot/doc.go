// Package snapshot builds a Snapshot from the configured sheets and sections.
//
// types.go holds the transient data model. builder.go owns one Fetcher per
// sheet and the compiled schema of every section; Builder.Build fetches each
// sheet at most once per pass (through the URL cache) and evaluates the
// sections in config order. A failing section records its error and never
// prevents the others from being built.
package snapshot
