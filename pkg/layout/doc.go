// Package layout assigns diagram columns and canvas coordinates to nodes.
//
// # Layering
//
// [Assign] runs a Kahn-style layered traversal over a [graph.Graph]:
//
//  1. Count every edge targeting each id (in-degree).
//  2. Column 0 holds the declared nodes with in-degree 0, in declaration order.
//  3. After a column is marked seen, edges are scanned in declaration order. A
//     target joins the next column once its source is seen and every source of
//     every edge targeting it is seen.
//  4. Candidates are de-duplicated in the order they first qualified.
//  5. The traversal stops when a pass yields no candidates.
//
// Declared nodes that were never reached (cycles, edges from undeclared ids)
// are appended to column 0. Ids that only appear as edge endpoints are never
// placed, not even in a later column, so a dangling edge target never shifts
// its would-be column-mates or delays its own children. Assign never fails: every declared id lands in exactly one column.
//
// # Positioning
//
// [Place] spreads columns evenly across the frame width and the nodes of a
// column evenly across the frame height, both inside the [Frame] padding. A
// single column sits on the left padding; a single node sits on the top
// padding.
//
//	layers := layout.Assign(g)
//	l := layout.Place(layers, layout.DefaultFrame)
//	p, _ := l.Position("softmax")
package layout
