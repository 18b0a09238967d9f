// Package catalog defines the static security-framework data set: frameworks
// and the weighted relations between them, the sample controls tracked by the
// compliance view, and the control domains listed in the resource browser.
//
// # Loading
//
// The embedded sample catalog is returned by [Default]. Custom catalogs are
// read with [Load], which selects a decoder from the file extension:
//
//	c, err := catalog.Load("frameworks.toml") // also .yaml, .yml, .json
//
// # Ordering
//
// Slice order in a [Catalog] is significant. Framework order fixes the
// circular layout and breaks pick ties; relation order fixes the order of the
// inner ring when a framework is focused.
//
// # Integrity
//
// [Catalog.Validate] rejects catalogs that cannot be rendered at all
// (duplicate IDs, unknown categories, strengths outside [0,1]).
// [Catalog.Integrity] reports softer problems, such as relations that refer
// to unknown frameworks; those relations are skipped by the layout engine.
package catalog
