// Package provider manages the interchangeable AI inference backends.
//
// # Registry
//
// The Registry holds the set of registered providers and the process-wide
// active selection. The selection is a (provider id, params) pair that is
// always read and written as one value under a single mutex, so a switch
// is atomic with respect to concurrent readers: nobody ever observes one
// provider's id paired with another's parameters.
//
// # Clients
//
// Each backend implements the Client interface, one variant per provider
// (OpenAI, Anthropic, Gemini). Callers dispatch through a map keyed by
// provider id; adding a backend means adding one variant and one map
// entry, nothing else changes.
//
// # Errors
//
// SetActive returns ErrUnknownProvider for unregistered candidates.
// Client failures surface as ErrUpstreamUnavailable with no upstream
// detail attached; credentials and raw API errors stay in operator logs.
package provider
