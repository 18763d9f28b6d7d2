package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersByLabel(t *testing.T) {
	before := testutil.ToFloat64(RowsReadTotal.WithLabelValues("steam", "games"))
	RowsReadTotal.WithLabelValues("steam", "games").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(RowsReadTotal.WithLabelValues("steam", "games")))
}

func TestPushEmptyURLIsNoop(t *testing.T) {
	assert.NoError(t, Push("", "gamecat"))
}

func TestPushSendsRegistry(t *testing.T) {
	var body string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	MasterRowsTotal.WithLabelValues("games_master").Set(2)
	require.NoError(t, Push(srv.URL, "gamecat"))
	assert.Equal(t, "/metrics/job/gamecat", path)
	assert.NotEmpty(t, body)
}

func TestPushReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(srv.URL, "gamecat")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to push metrics"))
}
