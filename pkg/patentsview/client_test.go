package patentsview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAssignee(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/patent/", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var q map[string]map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("q")), &q))
		assert.Equal(t, "Apple", q["_contains"]["assignees.assignee_organization"])

		w.Write([]byte(`{"patents": [
			{"patent_id": "1", "patent_title": "Neural engine", "cpc_at_issue": [{"cpc_group_id": "G06N3/08"}, {"cpc_group_id": "G06N3/08"}]},
			{"patent_id": "2", "patent_title": "Battery cell", "cpc_at_issue": [{"cpc_group_id": "H01M4/62"}]}
		]}`))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL))
	result, err := c.SearchAssignee(context.Background(), "Apple Inc.")
	require.NoError(t, err)

	assert.Equal(t, 2, result.PatentCount)
	assert.Equal(t, []string{"Neural engine", "Battery cell"}, result.Titles)
	// Duplicate CPC codes are collapsed.
	assert.Equal(t, []string{"G06N3/08", "H01M4/62"}, result.CPCCodes)
}

func TestSearchAssigneeEmptyName(t *testing.T) {
	c := NewClient("test-key")

	result, err := c.SearchAssignee(context.Background(), "   ")
	require.NoError(t, err)
	assert.Zero(t, result.PatentCount)
}

func TestCleanCompanyName(t *testing.T) {
	assert.Equal(t, "Apple", CleanCompanyName("Apple Inc."))
	assert.Equal(t, "Microsoft", CleanCompanyName("Microsoft Corporation"))
	assert.Equal(t, "Alphabet", CleanCompanyName("Alphabet Inc"))
	assert.Equal(t, "Shell", CleanCompanyName("Shell PLC"))
	assert.Equal(t, "Plain Name", CleanCompanyName("Plain Name"))
}
