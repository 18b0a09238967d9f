// Package radial computes target positions for the framework graph.
//
// # Layouts
//
// Two layouts are produced depending on whether a framework is focused:
//
//   - Unfocused: all N frameworks evenly on a circle of radius
//     0.35·min(width, height), catalog order, first at the top (−90°),
//     clockwise in 360°/N steps.
//   - Focused: the focus at the viewport centre; frameworks connected to it
//     on an inner ring (0.20·min) ordered by first connecting relation; all
//     others on an outer ring (0.38·min) in catalog order. Each ring starts
//     at the top independently.
//
// # Cost
//
// [Compute] runs in O(N + E) with no iterative relaxation, so it is cheap
// enough to call synchronously on every selection change.
//
// # Degenerate Input
//
// Relations naming unknown frameworks, and self-relations, are skipped and
// reported in [Result.Skipped]. A viewport with no area collapses every
// target onto the centre; targets are never NaN.
package radial
