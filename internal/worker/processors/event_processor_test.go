package processors

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"uploader/internal/apperr"
	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/models"
	"uploader/internal/quota"
	"uploader/internal/worker/processors/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(ctx context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

func vendorServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/manage/list/serverside", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rowData":[{"ID":"p1","uploadCommonProductName":"캠핑 랜턴"}],"lastRow":1}`)
	})
	mux.HandleFunc("/manage/sourcing-product/p1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"uploadCommonProductName":"캠핑 랜턴",
			"uploadCategory":{"ss_category":{"name":"스포츠/레저>캠핑>랜턴"}},
			"uploadSkus":[{"id":"1","text":"Red","_origin_price":30},{"id":"2","text":"Blue","_origin_price":32}]
		}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProcessor(t *testing.T, baseURL string) (*EventProcessor, *database.Repository, *capturePublisher) {
	t.Helper()
	dir := t.TempDir()
	session := `{"access_token":"a","refresh_token":"r","markets":["SMARTSTORE"],"throttle_ms":-1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.json"), []byte(session), 0o600))

	db, err := database.New("sqlite://" + filepath.Join(dir, "uploader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := database.NewRepository(db.DB)

	cfg := &config.Config{VendorBaseURL: baseURL, SessionDir: dir}
	v := validation.New(validation.StaticRules(keywords.Defaults()), nil, logger.Nop())
	pub := &capturePublisher{}
	return NewEventProcessor(cfg, logger.Nop(), v, quota.NewMemory(), repo, pub), repo, pub
}

func TestProcessUploadRequestedDryRun(t *testing.T) {
	srv := vendorServer(t)
	ep, repo, pub := newProcessor(t, srv.URL)

	e, err := events.New(events.TypeUploadRequested, "3c9f4c8e-7a51-4c57-9a53-1b0f1f0f0a01", events.UploadRequest{
		Session: "s1",
		Groups:  []string{"store-a"},
		DryRun:  true,
	})
	require.NoError(t, err)

	require.NoError(t, ep.Process(context.Background(), e))

	run, err := repo.GetRun(context.Background(), e.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.True(t, run.DryRun)
	assert.Equal(t, 1, run.Success)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeUploadCompleted, pub.events[0].Type)
}

func TestProcessRejectsUnknownSession(t *testing.T) {
	ep, _, _ := newProcessor(t, "http://127.0.0.1:1")

	e, err := events.New(events.TypeUploadRequested, "r", events.UploadRequest{Session: "missing", Groups: []string{"g"}})
	require.NoError(t, err)

	err = ep.Process(context.Background(), e)
	assert.True(t, apperr.IsKind(err, apperr.Config))
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	ep, _, _ := newProcessor(t, "http://127.0.0.1:1")
	assert.NoError(t, ep.Process(context.Background(), events.Event{Type: "product.updated"}))
}
