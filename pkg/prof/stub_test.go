//go:build !profile

package prof

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubs(t *testing.T) {
	assert.False(t, Enabled)
	assert.NoError(t, StartCPU("/nonexistent/directory/cpu.prof"))
	assert.False(t, IsCPUActive())
	StopCPU()

	var buf bytes.Buffer
	assert.NoError(t, WriteTo(ProfileHeap, &buf))
	assert.Zero(t, buf.Len())

	mux := http.NewServeMux()
	Handle(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStubDoCallsThrough(t *testing.T) {
	want := errors.New("stage failed")
	called := false
	err := Do(context.Background(), "reset", func(context.Context) error {
		called = true
		return want
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, want)
}
