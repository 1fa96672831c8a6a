package querylistingsindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/models"
)

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

// stubTransport serves a canned index response and records the request so
// tests can assert on the path and query body the client actually sent.
type stubTransport struct {
	status   int
	body     string
	lastPath string
	lastBody []byte
}

func (st *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	st.lastPath = req.URL.Path
	if req.Body != nil {
		st.lastBody, _ = io.ReadAll(req.Body)
	}
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: st.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(st.body)),
	}, nil
}

func newStubHandler(t *testing.T, st *stubTransport) *Handler {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Transport: st})
	require.NoError(t, err)
	return NewHandler(LoadConfig(), esClient, &testLogger{t: t})
}

const twoHitResponse = `{
	"took": 4,
	"hits": {
		"total": {"value": 2},
		"hits": [
			{"_source": {"id": "lst-1", "city": "Boston", "state": "MA", "price": 480000, "status": "active"}},
			{"_source": {"id": "lst-2", "city": "Cambridge", "state": "MA", "price": 520000, "status": "coming_soon"}}
		]
	}
}`

func TestExecute_ReturnsIndexedListings(t *testing.T) {
	st := &stubTransport{status: http.StatusOK, body: twoHitResponse}
	handler := newStubHandler(t, st)

	output, err := handler.execute(context.Background(), &Input{
		Criteria: models.SearchCriteria{State: "MA", Cities: []string{"Boston", "Cambridge"}},
		Size:     50,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, output.TotalHits)
	assert.Equal(t, 4, output.Took)
	require.Len(t, output.Listings, 2)
	assert.Equal(t, "lst-1", output.Listings[0].ID)
	assert.Equal(t, "Cambridge", output.Listings[1].City)

	assert.Equal(t, "/listings/_search", st.lastPath)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(st.lastBody, &sent))
	boolQuery := sent["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.NotEmpty(t, boolQuery["filter"])
	assert.Contains(t, string(st.lastBody), `"created_at":{"order":"desc"}`)
}

func TestExecute_SizeCappedAtMaxResults(t *testing.T) {
	st := &stubTransport{status: http.StatusOK, body: twoHitResponse}
	handler := newStubHandler(t, st)

	_, err := handler.execute(context.Background(), &Input{
		Criteria: models.SearchCriteria{State: "MA"},
		Size:     100000,
	})
	require.NoError(t, err)
}

func TestExecute_IndexErrorSurfaces(t *testing.T) {
	st := &stubTransport{status: http.StatusInternalServerError, body: `{"error": "shard failure"}`}
	handler := newStubHandler(t, st)

	output, err := handler.execute(context.Background(), &Input{
		Criteria: models.SearchCriteria{State: "MA"},
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrSearchIndexFailed)
}

func TestExecute_MissingIndexName(t *testing.T) {
	st := &stubTransport{status: http.StatusOK, body: twoHitResponse}
	handler := newStubHandler(t, st)
	handler.config.Index = ""

	output, err := handler.execute(context.Background(), &Input{
		Criteria: models.SearchCriteria{State: "MA"},
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestExecute_EmptyResultIsNotAnError(t *testing.T) {
	st := &stubTransport{
		status: http.StatusOK,
		body:   `{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`,
	}
	handler := newStubHandler(t, st)

	output, err := handler.execute(context.Background(), &Input{
		Criteria: models.SearchCriteria{State: "MA", ZipCode: "99999"},
	})
	require.NoError(t, err)
	assert.Zero(t, output.TotalHits)
	assert.NotNil(t, output.Listings)
	assert.Empty(t, output.Listings)
}
