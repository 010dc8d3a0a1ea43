//go:build profile

package prof

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCPU(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.prof")
	require.NoError(t, StartCPU(path))
	assert.True(t, IsCPUActive())

	err := StartCPU(filepath.Join(t.TempDir(), "cpu2.prof"))
	assert.ErrorIs(t, err, ErrCPUProfileActive)

	StopCPU()
	assert.False(t, IsCPUActive())
	StopCPU()

	// restartable
	require.NoError(t, StartCPU(path))
	StopCPU()
}

func TestStartCPUInvalidPath(t *testing.T) {
	err := StartCPU("/nonexistent/directory/cpu.prof")
	assert.Error(t, err)
	assert.False(t, IsCPUActive())
}

func TestWrite(t *testing.T) {
	for _, p := range []Profile{ProfileHeap, ProfileAllocs, ProfileGoroutine, ProfileThreadCreate, ProfileBlock, ProfileMutex} {
		t.Run(p.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), p.String()+".prof")
			require.NoError(t, Write(p, path))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.NotZero(t, info.Size())
		})
	}
}

func TestWriteRejectsCPU(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteTo(ProfileCPU, &buf), ErrInvalidProfile)
	assert.ErrorIs(t, Write(ProfileCPU, filepath.Join(t.TempDir(), "cpu.prof")), ErrInvalidProfile)
	assert.ErrorIs(t, WriteTo(Profile("nonexistent"), &buf), ErrInvalidProfile)
}

func TestDoLabels(t *testing.T) {
	want := errors.New("stage failed")
	var got string
	err := Do(context.Background(), "configure", func(ctx context.Context) error {
		got, _ = pprof.Label(ctx, StageLabel)
		return want
	})
	assert.ErrorIs(t, err, want)
	assert.Equal(t, "configure", got)
}

func TestHandle(t *testing.T) {
	mux := http.NewServeMux()
	Handle(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}
