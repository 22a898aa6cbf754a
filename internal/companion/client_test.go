package companion

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceos/pkgmap/internal/infrastructure/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Config{Level: "error", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	return logger
}

func TestTriggerSnapshot(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	err := c.TriggerSnapshot()

	require.NoError(t, err)
	assert.Equal(t, "/v1/trigger-snapshot", gotPath)
}

func TestTriggerSnapshotRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	err := c.TriggerSnapshot()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestTriggerSnapshotFailsFastOnceBreakerOpens(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	for i := 0; i < 3; i++ {
		assert.Error(t, c.TriggerSnapshot())
	}

	before := hits
	assert.Error(t, c.TriggerSnapshot())
	assert.Equal(t, before, hits, "open breaker must not reach the companion")
}

func TestTriggerSnapshotUnreachable(t *testing.T) {
	// Reserve a port, then close it so nothing listens there.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := New(addr, testLogger(t))
	err := c.TriggerSnapshot()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
