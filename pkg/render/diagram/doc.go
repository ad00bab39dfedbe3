// Package diagram turns a positioned layout into drawable primitives.
//
// A [Scene] holds one [Connector] per edge (a left-to-right cubic curve) and
// one [Box] per node (a rounded rectangle with a type label and a shape
// sub-label), plus the hit regions used for hover. Sinks in
// pkg/render/sink draw a Scene; the server and the terminal browser query it.
//
// # Hover
//
// Hovering is a two-state machine, idle or hovering a node. [Hover] holds
// that state for one client; [Scene.Incident] and [Scene.Info] answer what
// to highlight and what to show while hovering.
package diagram
