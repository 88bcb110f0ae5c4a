// Package notify keeps the client's notification list consistent across a
// paginated history fetch and out-of-order realtime pushes.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/custconnect/custconnect-backend/pkg/client"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

// Record is one notification as the client holds it.
type Record struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Toast is the transient surface raised for a pushed record.
type Toast struct {
	Icon    string
	Title   string
	Message string
}

// ToastSink receives toasts. The embedding UI supplies one; a nil sink
// silently drops them.
type ToastSink interface {
	Show(toast Toast)
}

// categoryIcons is the fixed category-to-icon table. Unknown categories fall
// back to defaultIcon.
var categoryIcons = map[string]string{
	"INFO":         "information-circle",
	"WARNING":      "warning",
	"ERROR":        "alert-circle",
	"SUCCESS":      "checkmark-circle",
	"BUS_ALERT":    "bus",
	"EVENT_UPDATE": "calendar",
	"NEW_MESSAGE":  "chatbubble",
}

const defaultIcon = "notifications"

// IconFor picks the toast icon for a category.
func IconFor(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return defaultIcon
}

const refreshPageSize = 20

// Reconciler holds the newest-first record sequence. One mutex serializes
// every mutation, so a refresh and a push can never interleave mid-merge.
// The unread count is always recomputed from the sequence, never stored.
type Reconciler struct {
	api   *client.Client
	log   *logger.Logger
	toast ToastSink

	mu          sync.Mutex
	records     []Record
	refreshedBy string // user id the one-shot auto refresh already ran for
}

// ReconcilerParams configures NewReconciler. Toast may be nil.
type ReconcilerParams struct {
	API    *client.Client
	Logger *logger.Logger
	Toast  ToastSink
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.API == nil {
		return nil, errors.New("notify: API is required")
	}
	if params.Logger == nil {
		return nil, errors.New("notify: Logger is required")
	}
	return &Reconciler{api: params.API, log: params.Logger, toast: params.Toast}, nil
}

// Records returns a copy of the sequence, newest-first.
func (r *Reconciler) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Unread counts the records with Read=false. Derived on every call so it can
// never drift from the sequence.
func (r *Reconciler) Unread() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unreadLocked()
}

// caller holds r.mu
func (r *Reconciler) unreadLocked() int {
	count := 0
	for _, rec := range r.records {
		if !rec.Read {
			count++
		}
	}
	return count
}

type listPayload struct {
	Notifications []Record `json:"notifications"`
}

// Refresh fetches the first history page and merges it by id. Records
// already held locally win over their fetched copies, so a push that raced
// the fetch is never overwritten by the slower-arriving page. Any backend
// failure is logged and swallowed; the previous state stays untouched.
func (r *Reconciler) Refresh(ctx context.Context) {
	query := url.Values{
		"page":  {"1"},
		"limit": {strconv.Itoa(refreshPageSize)},
	}
	var payload listPayload
	if err := r.api.Get(ctx, "/api/v1/notifications", query, &payload); err != nil {
		r.log.Warn(r.log.WithField(ctx, "error", err.Error()), "notify.refresh_failed")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	local := make(map[string]Record, len(r.records))
	for _, rec := range r.records {
		local[rec.ID] = rec
	}

	merged := make([]Record, 0, len(payload.Notifications)+len(r.records))
	fetched := make(map[string]struct{}, len(payload.Notifications))
	for _, rec := range payload.Notifications {
		fetched[rec.ID] = struct{}{}
		if held, ok := local[rec.ID]; ok {
			merged = append(merged, held)
			continue
		}
		merged = append(merged, rec)
	}
	// Pushed records absent from the page stay at the front, in their
	// existing order.
	front := make([]Record, 0)
	for _, rec := range r.records {
		if _, ok := fetched[rec.ID]; !ok {
			front = append(front, rec)
		}
	}
	r.records = append(front, merged...)
}

// EnsureFresh runs Refresh at most once automatically per user id. A login
// by a different user resets the guard; explicit Refresh calls are never
// throttled.
func (r *Reconciler) EnsureFresh(ctx context.Context, userID string) {
	r.mu.Lock()
	if r.refreshedBy == userID {
		r.mu.Unlock()
		return
	}
	if r.refreshedBy != "" {
		// a different user logged in; their predecessor's records must not
		// leak into the new session
		r.records = nil
	}
	r.refreshedBy = userID
	r.mu.Unlock()

	r.Refresh(ctx)
}

// OnPush handles the realtime "notification" event. A record whose id is
// already present is a no-op. Otherwise it is prepended as the newest item
// regardless of its timestamp, and a toast is raised.
func (r *Reconciler) OnPush(data json.RawMessage) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil || rec.ID == "" {
		r.log.Warn(context.Background(), "notify.push_malformed")
		return
	}

	r.mu.Lock()
	for _, held := range r.records {
		if held.ID == rec.ID {
			r.mu.Unlock()
			return
		}
	}
	r.records = append([]Record{rec}, r.records...)
	r.mu.Unlock()

	if r.toast != nil {
		r.toast.Show(Toast{Icon: IconFor(rec.Category), Title: rec.Title, Message: rec.Message})
	}
}

// MarkRead flips the record locally first, then tells the backend. The local
// flip is not rolled back on failure; the next refresh reconverges.
func (r *Reconciler) MarkRead(ctx context.Context, id string) {
	r.mu.Lock()
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Read = true
			break
		}
	}
	r.mu.Unlock()

	if err := r.api.Put(ctx, "/api/v1/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		r.log.Warn(r.log.WithField(ctx, "error", err.Error()), "notify.mark_read_failed")
	}
}

// MarkAllRead applies the optimistic flip to every record in one pass, then
// makes one backend call.
func (r *Reconciler) MarkAllRead(ctx context.Context) {
	r.mu.Lock()
	for i := range r.records {
		r.records[i].Read = true
	}
	r.mu.Unlock()

	if err := r.api.Put(ctx, "/api/v1/notifications/read-all", nil, nil); err != nil {
		r.log.Warn(r.log.WithField(ctx, "error", err.Error()), "notify.mark_all_read_failed")
	}
}

// Delete removes the record locally and waits for the backend. Unlike the
// read-state toggles, a backend rejection is returned: silently dropping a
// record the server still holds would resurface it on the next refresh.
func (r *Reconciler) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	r.mu.Unlock()

	return r.api.Delete(ctx, "/api/v1/notifications/"+url.PathEscape(id))
}
