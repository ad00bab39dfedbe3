// Package sink writes a [diagram.Scene] in the supported output formats.
//
//   - [RenderSVG]: self-contained interactive SVG (hover highlight, tooltip
//     data, forward pulse on double click)
//   - [RenderJSON]: positioned layout with connector paths and pulse timing
//   - [RenderASCII]: column table for terminals
//
// PNG and PDF are produced from the SVG by the render package.
package sink

import (
	"bytes"
	"encoding/xml"
)

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
