package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

type fakeProvider struct {
	id            string
	jurisdictions map[string]bool
}

func (f *fakeProvider) SourceID() string { return f.id }

func (f *fakeProvider) SupportsJurisdiction(code string) bool {
	if asset.IsGlobalJurisdiction(code) {
		return true
	}
	return f.jurisdictions[code]
}

func (f *fakeProvider) SearchByKeyword(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	return nil, nil
}

func (f *fakeProvider) SearchAdvanced(ctx context.Context, filter *asset.SearchFilter) ([]asset.AssetDocument, error) {
	return nil, nil
}

func (f *fakeProvider) FetchDetail(ctx context.Context, id string) (*asset.AssetDocument, error) {
	return nil, nil
}

var _ Provider = (*fakeProvider)(nil)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{id: "EPO", jurisdictions: map[string]bool{"EP": true, "DE": true}}))
	require.NoError(t, r.Register(&fakeProvider{id: "USPTO", jurisdictions: map[string]bool{"US": true}}))
	require.NoError(t, r.Register(&fakeProvider{id: "TMVIEW", jurisdictions: map[string]bool{"EM": true}}))
	return r
}

func TestRegistry_DuplicateSourceID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{id: "EPO"}))
	err := r.Register(&fakeProvider{id: "EPO"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestRegistry_ForJurisdictionKeepsRegistrationOrder(t *testing.T) {
	r := newTestRegistry(t)

	all := r.ForJurisdiction("ALL")
	require.Len(t, all, 3)
	assert.Equal(t, "EPO", all[0].SourceID())
	assert.Equal(t, "USPTO", all[1].SourceID())
	assert.Equal(t, "TMVIEW", all[2].SourceID())

	us := r.ForJurisdiction("US")
	require.Len(t, us, 1)
	assert.Equal(t, "USPTO", us[0].SourceID())
}

func TestRegistry_DetectSource(t *testing.T) {
	r := newTestRegistry(t)

	cases := []struct {
		assetID string
		want    string
	}{
		{"EP3121232A1", "EPO"},
		{"DE102019456", "EPO"},
		{"US10123456B2", "USPTO"},
		{"9876543", "USPTO"},
		{"88123456", "USPTO"},
		{"EM018234567", "TMVIEW"},
		{"ep3121232a1", "EPO"}, // case-insensitive
	}
	for _, tc := range cases {
		p, err := r.DetectSource(tc.assetID)
		require.NoError(t, err, tc.assetID)
		assert.Equal(t, tc.want, p.SourceID(), tc.assetID)
	}
}

func TestRegistry_DetectSourceUndetectable(t *testing.T) {
	r := newTestRegistry(t)

	for _, id := range []string{"", "???", "abc-def", "123"} {
		_, err := r.DetectSource(id)
		assert.True(t, errors.IsCode(err, errors.ErrCodeSourceUndetectable), id)
	}
}
