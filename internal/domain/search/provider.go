// Package search defines the provider contract the dispatcher fans out to
// and the registry upstream sources are enrolled in at startup.
package search

import (
	"context"

	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

// Provider is the capability contract every upstream source implements.
// Implementations wrap one upstream HTTP API and share no state with
// each other.
type Provider interface {
	// SourceID identifies the upstream source, e.g. "EPO" or "USPTO".
	SourceID() string

	// SupportsJurisdiction reports whether this provider serves the given
	// jurisdiction code. It must return true for a blank or "ALL" code so
	// the provider opts into global queries.
	SupportsJurisdiction(code string) bool

	// SearchByKeyword runs a plain keyword query against the upstream.
	SearchByKeyword(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error)

	// SearchAdvanced runs a fielded query (assignee, inventor, owner,
	// date range) against the upstream.
	SearchAdvanced(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error)

	// FetchDetail retrieves the current normalized record for one asset.
	FetchDetail(ctx context.Context, id string) (*asset.AssetDocument, error)
}
