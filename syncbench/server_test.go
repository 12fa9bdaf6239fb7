package syncbench

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	r, reg := newTestRunner(t)
	_, err := r.Run(context.Background(), Scenario{Name: "m", Kind: KindMutex, Goroutines: 2, Iterations: 10})
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(reg))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok\n", body)

	code, body = get("/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `qsync_synchronizer_acquires_total{mode="exclusive"`)
	require.Contains(t, body, "qsync_bench_max_concurrent_holders")

	code, _ = get("/nope")
	require.Equal(t, http.StatusNotFound, code)
}
