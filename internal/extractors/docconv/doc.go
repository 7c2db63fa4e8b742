// Package docconv provides the tiers backed by code.sajari.com/docconv:
// the managed loader for web pages and the generic structural extractor
// that handles any document type docconv understands.
//
// Some formats rely on external tools (pdftotext, wvText, tesseract).
// When a tool is missing the tier fails and the loader chain moves on.
package docconv
