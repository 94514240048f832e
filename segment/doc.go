// Package segment splits raw document content into ordered,
// position-addressable segments.
//
// Three modes mirror the three source types: newline-split text with exact
// round-trip reconstruction, per-page PDF text, and timed transcript lines.
// Segments are the unit the token budgeter truncates at and the unit
// knowledge points anchor back to.
package segment
