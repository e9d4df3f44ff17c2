package tmview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

func TestClient_SupportsJurisdiction(t *testing.T) {
	c := NewClient(nil)

	assert.True(t, c.SupportsJurisdiction("EM"))
	assert.True(t, c.SupportsJurisdiction("DE"))
	assert.True(t, c.SupportsJurisdiction("ALL"))
	assert.False(t, c.SupportsJurisdiction("US"))
}

func TestClient_SearchPreservesRawStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme", r.URL.Query().Get("basicSearch"))
		_, _ = w.Write([]byte(`{"tradeMarks":[{
			"applicationNumber":"EM018234567",
			"office":"EM",
			"markName":"ACME",
			"applicationDate":"2019-05-20",
			"statusCode":"850",
			"applicantName":"Acme Corp"
		}]}`))
	}))
	defer srv.Close()

	c := NewClient(nil, WithBaseURL(srv.URL))
	docs, err := c.SearchByKeyword(context.Background(), &asset.SearchFilter{
		Keyword: "acme", Kind: asset.KindTrademark,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, asset.KindTrademark, doc.Kind)
	assert.Equal(t, "850", doc.StatusCode, "register code passes through untouched")
	assert.Equal(t, "TMVIEW", doc.Source)
	require.Len(t, doc.Parties, 1)
	assert.Equal(t, "owner", doc.Parties[0].Role)
}

func TestClient_AdvancedSearchSendsOwnerAndState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme Corp", r.URL.Query().Get("applicantName"))
		assert.Equal(t, "registered", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"tradeMarks":[]}`))
	}))
	defer srv.Close()

	c := NewClient(nil, WithBaseURL(srv.URL))
	docs, err := c.SearchAdvanced(context.Background(), &asset.SearchFilter{
		Keyword: "acme", Owner: "Acme Corp", State: "registered", Kind: asset.KindTrademark,
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
