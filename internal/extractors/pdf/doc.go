// Package pdf provides the PDF tiers: a layout partitioner that rebuilds
// lines from positioned text and detects column-aligned tables, and a
// plain-text tier used when layout extraction fails.
//
// Both tiers read the document from memory; no external tools are needed.
package pdf
