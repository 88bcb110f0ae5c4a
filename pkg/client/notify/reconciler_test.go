package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custconnect/custconnect-backend/pkg/client"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "notify-test", Output: io.Discard})
}

type recordedToast struct {
	mu     sync.Mutex
	toasts []Toast
}

func (s *recordedToast) Show(toast Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, toast)
}

func (s *recordedToast) all() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.toasts...)
}

func newTestReconciler(t *testing.T, handler http.Handler) (*Reconciler, *recordedToast) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := client.New(client.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	sink := &recordedToast{}
	rec, err := NewReconciler(ReconcilerParams{API: api, Logger: testLogger(), Toast: sink})
	require.NoError(t, err)
	return rec, sink
}

func listResponse(ids ...string) string {
	items := make([]string, 0, len(ids))
	for i, id := range ids {
		items = append(items, fmt.Sprintf(
			`{"id":%q,"category":"INFO","title":"t-%s","message":"m","read":false,"created_at":%q}`,
			id, id, time.Now().Add(-time.Duration(i)*time.Minute).Format(time.RFC3339),
		))
	}
	return `{"success":true,"notifications":[` + strings.Join(items, ",") + `]}`
}

func pushRecord(t *testing.T, r *Reconciler, id string, category string) {
	t.Helper()
	raw, err := json.Marshal(Record{ID: id, Category: category, Title: "t-" + id, Message: "m"})
	require.NoError(t, err)
	r.OnPush(raw)
}

func TestRefreshPopulatesNewestFirst(t *testing.T) {
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(listResponse("n3", "n2", "n1")))
	}))

	rec.Refresh(context.Background())
	records := rec.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "n3", records[0].ID)
	assert.Equal(t, 3, rec.Unread())
}

func TestRefreshFailureLeavesStateUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // every request fails at the transport

	api, err := client.New(client.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	rec, err := NewReconciler(ReconcilerParams{API: api, Logger: testLogger()})
	require.NoError(t, err)

	pushRecord(t, rec, "n1", "INFO")
	pushRecord(t, rec, "n2", "INFO")
	pushRecord(t, rec, "n3", "INFO")
	require.Len(t, rec.Records(), 3)

	rec.Refresh(context.Background())

	records := rec.Records()
	require.Len(t, records, 3, "a failed refresh must not disturb the sequence")
	assert.Equal(t, "n3", records[0].ID)
	assert.Equal(t, 3, rec.Unread())
}

func TestRefreshMergePushWins(t *testing.T) {
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listResponse("n2", "n1")))
	}))

	// A push raced ahead of the fetch: n9 is not in the page, n2 is.
	pushRecord(t, rec, "n9", "INFO")
	pushRecord(t, rec, "n2", "INFO")
	rec.MarkRead(context.Background(), "n2") // local copy diverges from the page

	rec.Refresh(context.Background())

	records := rec.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "n9", records[0].ID, "pushed record absent from the page stays in front")
	assert.Equal(t, "n2", records[1].ID)
	assert.True(t, records[1].Read, "the locally-held copy wins over the fetched one")
	assert.Equal(t, "n1", records[2].ID)
}

func TestEnsureFreshRunsOncePerUser(t *testing.T) {
	var fetches atomic.Int32
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte(listResponse("n1")))
	}))

	rec.EnsureFresh(context.Background(), "u1")
	rec.EnsureFresh(context.Background(), "u1")
	rec.EnsureFresh(context.Background(), "u1")
	assert.Equal(t, int32(1), fetches.Load())

	// Explicit refreshes are never throttled.
	rec.Refresh(context.Background())
	assert.Equal(t, int32(2), fetches.Load())

	// A different user resets the guard and starts from a clean sequence.
	rec.EnsureFresh(context.Background(), "u2")
	assert.Equal(t, int32(3), fetches.Load())
}

func TestOnPushPrependsAndToasts(t *testing.T) {
	rec, sink := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listResponse("n1")))
	}))
	rec.Refresh(context.Background())

	pushRecord(t, rec, "n2", "BUS_ALERT")

	records := rec.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "n2", records[0].ID, "pushed record is newest regardless of timestamp")
	assert.Equal(t, 2, rec.Unread())

	toasts := sink.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, "bus", toasts[0].Icon)
}

func TestOnPushIsIdempotentByID(t *testing.T) {
	rec, sink := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	pushRecord(t, rec, "n1", "INFO")
	pushRecord(t, rec, "n1", "INFO")

	assert.Len(t, rec.Records(), 1)
	assert.Len(t, sink.all(), 1, "duplicate pushes raise no second toast")
}

func TestOnPushUnknownCategoryGetsDefaultIcon(t *testing.T) {
	rec, sink := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	pushRecord(t, rec, "n1", "SOMETHING_NEW")

	toasts := sink.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, defaultIcon, toasts[0].Icon)
}

func TestMarkReadIsOptimisticAndSwallowsBackendFailure(t *testing.T) {
	var calls atomic.Int32
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(listResponse("n1", "n2")))
	}))
	rec.Refresh(context.Background())
	require.Equal(t, 2, rec.Unread())

	rec.MarkRead(context.Background(), "n1")

	assert.Equal(t, 1, rec.Unread(), "local flip sticks even when the backend rejects")
	assert.True(t, rec.Records()[0].Read)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMarkAllReadOnePassOneCall(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			paths = append(paths, r.URL.Path)
			mu.Unlock()
			_, _ = w.Write([]byte(`{"success":true,"updated":3}`))
			return
		}
		_, _ = w.Write([]byte(listResponse("n1", "n2", "n3")))
	}))
	rec.Refresh(context.Background())

	rec.MarkAllRead(context.Background())

	assert.Equal(t, 0, rec.Unread())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.Equal(t, "/api/v1/notifications/read-all", paths[0])
}

func TestDeleteRemovesLocallyAndSurfacesBackendError(t *testing.T) {
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"notification not found"}`))
			return
		}
		_, _ = w.Write([]byte(listResponse("n1", "n2")))
	}))
	rec.Refresh(context.Background())

	err := rec.Delete(context.Background(), "n1")

	var backendErr *client.BackendError
	require.ErrorAs(t, err, &backendErr, "deletion failure is surfaced, unlike read toggles")
	assert.Equal(t, "notification not found", backendErr.Message)

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "n2", records[0].ID)
}

func TestDeleteSuccess(t *testing.T) {
	rec, _ := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			assert.Equal(t, "/api/v1/notifications/n1", r.URL.Path)
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(listResponse("n1")))
	}))
	rec.Refresh(context.Background())

	require.NoError(t, rec.Delete(context.Background(), "n1"))
	assert.Empty(t, rec.Records())
	assert.Equal(t, 0, rec.Unread())
}
