// Package extractors provides the loader tiers used by the loader chain.
// Each tier turns a fetched RawDocument into text items; tables are
// reported as Table items so they can bypass segmentation.
//
// Tiers are registered with the LoaderChain at startup and tried in
// descending priority order.
package extractors
