package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	up   Checker = func(context.Context) error { return nil }
	down Checker = func(context.Context) error { return errors.New("connection refused") }
)

func serve(t *testing.T, hf http.HandlerFunc) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	hf.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("mongodb", down)

	code, resp := serve(t, h.LivenessHandler())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name        string
		critical    map[string]Checker
		nonCritical map[string]Checker
		wantCode    int
		wantStatus  Status
	}{
		{
			name:       "no checks",
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
		{
			name:        "all up",
			critical:    map[string]Checker{"mongodb": up},
			nonCritical: map[string]Checker{"elasticsearch": up, "redis": up},
			wantCode:    http.StatusOK,
			wantStatus:  StatusUp,
		},
		{
			name:        "index down degrades",
			critical:    map[string]Checker{"mongodb": up},
			nonCritical: map[string]Checker{"elasticsearch": down},
			wantCode:    http.StatusOK,
			wantStatus:  StatusDegraded,
		},
		{
			name:        "several optional backends down",
			critical:    map[string]Checker{"mongodb": up},
			nonCritical: map[string]Checker{"elasticsearch": down, "redis": down, "kafka": up},
			wantCode:    http.StatusOK,
			wantStatus:  StatusDegraded,
		},
		{
			name:        "store down",
			critical:    map[string]Checker{"mongodb": down},
			nonCritical: map[string]Checker{"elasticsearch": up},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
		},
		{
			name:        "store and index down",
			critical:    map[string]Checker{"mongodb": down},
			nonCritical: map[string]Checker{"elasticsearch": down},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			for name, fn := range tt.critical {
				h.RegisterCritical(name, fn)
			}
			for name, fn := range tt.nonCritical {
				h.RegisterNonCritical(name, fn)
			}

			code, resp := serve(t, h.ReadinessHandler())

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.Len(t, resp.Checks, len(tt.critical)+len(tt.nonCritical))
			for name := range tt.critical {
				assert.True(t, resp.Checks[name].Critical, name)
			}
			for name := range tt.nonCritical {
				assert.False(t, resp.Checks[name].Critical, name)
			}
		})
	}
}

func TestReadiness_ReportsCheckError(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("redis", down)

	_, resp := serve(t, h.ReadinessHandler())

	assert.Equal(t, StatusDown, resp.Checks["redis"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
}

func TestRegister_ReplacesSameName(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("mongodb", down)
	h.RegisterNonCritical("mongodb", up)

	resp := h.Check(context.Background())

	require.Len(t, resp.Checks, 1)
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Checks["mongodb"].Critical)
}

func TestCheck_RecordsLatency(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("mongodb", func(context.Context) error {
		time.Sleep(15 * time.Millisecond)
		return nil
	})

	resp := h.Check(context.Background())

	assert.GreaterOrEqual(t, resp.Checks["mongodb"].LatencyMS, int64(15))
}

func TestCheck_HangingCheckTimesOut(t *testing.T) {
	h := NewHandler()
	h.timeout = 20 * time.Millisecond
	h.RegisterNonCritical("elasticsearch", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	h.RegisterCritical("mongodb", up)

	start := time.Now()
	resp := h.Check(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["elasticsearch"].Error)
}
