// Package view composes layout, animation and picking into an interactive
// framework graph.
//
// A [View] owns the positioned nodes and the selection. It is driven by
// three kinds of input: viewport changes ([View.Resize]), pointer events
// ([View.Hover], [View.Click], [View.Leave]) and external focus requests
// ([View.Focus], [View.ClearFocus]). Every selection change recomputes the
// layout targets synchronously, before the next [View.Tick] runs, so a tick
// never observes a half-updated target set.
//
// View is not safe for concurrent use. Hosts either call it from a single
// goroutine (the bubbletea TUI does this from Update) or wrap it in a
// [Loop], which serialises events and refresh ticks on one goroutine and
// stops its timer on teardown.
//
// # Rendering
//
// Presentation is pull-based: [View.Frame] returns an immutable snapshot of
// node positions, edges, selection and hover that renderers draw from.
package view
