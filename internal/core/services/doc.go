// Package services implements the driving port interfaces.
// Services hold the ingestion pipeline logic and orchestrate
// calls to driven ports (adapters).
//
// Services never import an adapter package; fetchers, extractors,
// embedders and stores are injected as driven ports.
package services
