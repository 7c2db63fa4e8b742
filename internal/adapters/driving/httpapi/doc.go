// Package httpapi exposes ingestion over a JSON HTTP API.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/ingest                start an ingestion in the background
//	GET  /v1/ingest/{collection}   status of the latest ingestion
//	POST /v1/index                 rebuild a lexical index
//	GET  /v1/runs                  recent runs, ?limit=N
//	GET  /v1/runs/{id}             one run
//
// When a JWT secret is configured every /v1 route requires an HS256 bearer
// token.
package httpapi
