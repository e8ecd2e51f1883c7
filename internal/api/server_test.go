package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/models"
	"uploader/internal/worker/processors/validation"

	"github.com/gin-gonic/gin"
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

type fixture struct {
	router *gin.Engine
	db     *database.Database
	pub    *capturePublisher
	kwPath string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := database.New("sqlite://" + filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kwPath := filepath.Join(dir, "keywords.json")
	store, err := keywords.NewStore("")
	require.NoError(t, err)
	require.NoError(t, keywords.Save(kwPath, store.Get()))
	store, err = keywords.NewStore(kwPath)
	require.NoError(t, err)

	pub := &capturePublisher{}
	srv := New(&config.Config{Env: "test"}, logger.Nop(), Deps{
		DB:        db,
		Keywords:  store,
		Validator: validation.New(store, nil, logger.Nop()),
		Publisher: pub,
	})
	return fixture{router: srv.GetRouter(), db: db, pub: pub, kwPath: kwPath}
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestClassifyScenario(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/classify", `{
		"option_sort": "price_asc",
		"product": {
			"uploadCommonProductName": "캠핑 랜턴",
			"uploadCategory": {"ss_category": {"name": "캠핑"}},
			"uploadSkus": [
				{"id": "0", "text": "Red, sample photo only", "_origin_price": 0},
				{"id": "1", "text": "Red", "_origin_price": 15000},
				{"id": "2", "text": "Blue", "_origin_price": 15000}
			]
		}
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["ready"])
	assert.Len(t, data["bait"], 1)
	assert.Len(t, data["valid"], 2)
	assert.Equal(t, "1", data["main"].(map[string]interface{})["id"])
}

func TestClassifyRejectsBadSort(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/v1/classify", `{"option_sort":"random","product":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRunPublishes(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/runs", `{"session":"s1","groups":["store-a"],"markets":["쿠팡"],"dry_run":true}`)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, f.pub.events, 1)
	e := f.pub.events[0]
	assert.Equal(t, events.TypeUploadRequested, e.Type)

	var req events.UploadRequest
	require.NoError(t, e.Decode(&req))
	assert.True(t, req.DryRun)

	runID := decode(t, w)["data"].(map[string]interface{})["run_id"]
	assert.Equal(t, e.RunID, runID)
}

func TestCreateRunValidates(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/runs", `{"groups":["g"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/runs", `{"session":"s1","groups":["g"],"markets":["아마존"]}`).Code)
	assert.Empty(t, f.pub.events)
}

func TestRunLookups(t *testing.T) {
	f := newFixture(t)
	repo := database.NewRepository(f.db.DB)
	run := &models.UploadRun{Session: "s1", Groups: "store-a"}
	require.NoError(t, repo.CreateRun(context.Background(), run))
	require.NoError(t, repo.RecordResult(context.Background(), &models.UploadResult{RunID: run.ID, ProductID: "p1", Outcome: models.OutcomeSuccess}))

	w := f.do(http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["pagination"].(map[string]interface{})["total"])

	w = f.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/results", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = f.do(http.MethodGet, "/api/v1/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueResolve(t *testing.T) {
	f := newFixture(t)
	issue := &models.Issue{ProductID: "p1", Channel: "SMARTSTORE", Code: "needs_review", Explanation: "missing category"}
	require.NoError(t, database.NewRepository(f.db.DB).OpenIssue(context.Background(), issue))

	w := f.do(http.MethodGet, "/api/v1/issues?resolved=false&severity=HIGH", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = f.do(http.MethodPost, "/api/v1/issues/"+issue.ID+"/resolve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]interface{})["is_resolved"])

	w = f.do(http.MethodGet, "/api/v1/issues?resolved=false", "")
	assert.Len(t, decode(t, w)["data"], 0)
}

func TestKeywordUpdatePersists(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPut, "/api/v1/keywords", `{"category_tiers":{"캠핑":"forbidden"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/v1/keywords", `{"bait":["증정품"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data, err := os.ReadFile(f.kwPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "증정품")

	w = f.do(http.MethodGet, "/api/v1/keywords", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"증정품"}, decode(t, w)["data"].(map[string]interface{})["bait"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	req.Header.Set("Origin", "http://console.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
