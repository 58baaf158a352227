package dashboard

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
	"github.com/rdelaney/powerplay/internal/storage"
	"github.com/rdelaney/powerplay/internal/strategy"
)

// memRepo is a DrawRepository stub over a fixed record slice.
type memRepo struct {
	records []model.DrawRecord
}

func (r *memRepo) Insert(context.Context, model.DrawRecord) error { return nil }
func (r *memRepo) InsertBatch(context.Context, []model.DrawRecord) (int, error) {
	return 0, nil
}
func (r *memRepo) GetAll(context.Context) ([]model.DrawRecord, error) {
	return r.records, nil
}
func (r *memRepo) GetLatest(context.Context) (model.DrawRecord, error) {
	if len(r.records) == 0 {
		return model.DrawRecord{}, storage.ErrNoDraws
	}
	return r.records[len(r.records)-1], nil
}
func (r *memRepo) Count(context.Context) (int, error) { return len(r.records), nil }

func testServer(t *testing.T, records []model.DrawRecord) *Server {
	t.Helper()
	engine := strategy.NewEngine(&strategy.Options{
		Rand: rand.New(rand.NewSource(1)),
	})
	return NewServer(nil, &memRepo{records: records}, engine)
}

func seedRecords(t *testing.T) []model.DrawRecord {
	t.Helper()
	fixtures := []struct {
		date   string
		whites []int
		red    int
	}{
		{"2024-01-01", []int{1, 2, 3, 4, 5}, 1},
		{"2024-01-03", []int{3, 12, 15, 56, 62}, 8},
		{"2024-01-06", []int{11, 22, 33, 44, 55}, 26},
		{"2024-01-08", []int{2, 12, 30, 40, 50}, 8},
		{"2024-01-10", []int{5, 15, 25, 35, 45}, 3},
	}

	records := make([]model.DrawRecord, 0, len(fixtures))
	for _, f := range fixtures {
		d, err := time.Parse("2006-01-02", f.date)
		if err != nil {
			t.Fatalf("bad test date %q: %v", f.date, err)
		}
		rec, err := model.NewDrawRecord(d, f.whites, f.red, 0)
		if err != nil {
			t.Fatalf("bad test draw: %v", err)
		}
		records = append(records, rec)
	}
	return records
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := doGet(t, testServer(t, nil), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestGetDraws(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/draws")
	if rec.Code != http.StatusOK {
		t.Fatalf("draws status = %d, want 200", rec.Code)
	}

	var body struct {
		Data []model.DrawRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode draws response: %v", err)
	}
	if len(body.Data) != 5 {
		t.Errorf("draws returned %d records, want 5", len(body.Data))
	}
}

func TestGetDrawsLimit(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/draws?limit=2")
	var body struct {
		Data []model.DrawRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode draws response: %v", err)
	}
	if len(body.Data) != 2 {
		t.Fatalf("draws returned %d records, want 2", len(body.Data))
	}
	// Limit keeps the most recent draws.
	if body.Data[1].Date.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("last draw = %s, want 2024-01-10", body.Data[1].Date.Format("2006-01-02"))
	}
}

func TestGetLatestDraw(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/draws/latest")
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d, want 200", rec.Code)
	}

	var body struct {
		Data model.DrawRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode latest response: %v", err)
	}
	if body.Data.Date.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("latest draw = %s, want 2024-01-10", body.Data.Date.Format("2006-01-02"))
	}
}

func TestGetLatestDrawEmpty(t *testing.T) {
	rec := doGet(t, testServer(t, nil), "/api/v1/draws/latest")
	if rec.Code != http.StatusNotFound {
		t.Errorf("latest on empty store status = %d, want 404", rec.Code)
	}
}

func TestGetFrequencies(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/frequencies")
	if rec.Code != http.StatusOK {
		t.Fatalf("frequencies status = %d, want 200", rec.Code)
	}

	var body struct {
		Data struct {
			Draws  int                `json:"draws"`
			Whites map[string]float64 `json:"whites"`
			Reds   map[string]float64 `json:"reds"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode frequencies response: %v", err)
	}
	if body.Data.Draws != 5 {
		t.Errorf("draws = %d, want 5", body.Data.Draws)
	}
	// Ball 12 appears twice in the fixtures.
	if body.Data.Whites["12"] != 2 {
		t.Errorf("white 12 count = %v, want 2", body.Data.Whites["12"])
	}
	if body.Data.Reds["8"] != 2 {
		t.Errorf("red 8 count = %v, want 2", body.Data.Reds["8"])
	}
}

func TestGetFrequenciesWeighted(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/frequencies?weighted=true&decay=0.9")
	if rec.Code != http.StatusOK {
		t.Fatalf("weighted frequencies status = %d, want 200", rec.Code)
	}

	var body struct {
		Data struct {
			Whites map[string]float64 `json:"whites"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode frequencies response: %v", err)
	}
	// Decay < 1 leaves older occurrences below a full count.
	if v := body.Data.Whites["1"]; v >= 1 {
		t.Errorf("weighted count for oldest-only ball = %v, want < 1", v)
	}
}

func TestGetPatterns(t *testing.T) {
	rec := doGet(t, testServer(t, seedRecords(t)), "/api/v1/patterns")
	if rec.Code != http.StatusOK {
		t.Fatalf("patterns status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chi_square") {
		t.Error("patterns response missing chi_square field")
	}
}

func TestGetOverdue(t *testing.T) {
	rec := doGet(t, testServer(t, seedRecords(t)), "/api/v1/overdue")
	if rec.Code != http.StatusOK {
		t.Fatalf("overdue status = %d, want 200", rec.Code)
	}

	var body struct {
		Data struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode overdue response: %v", err)
	}
	if body.Data.Reference != "2024-01-10" {
		t.Errorf("overdue reference = %s, want 2024-01-10", body.Data.Reference)
	}
}

func TestGetPicks(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/picks")
	if rec.Code != http.StatusOK {
		t.Fatalf("picks status = %d, want 200", rec.Code)
	}

	var body struct {
		Data []model.PickSet `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode picks response: %v", err)
	}
	if len(body.Data) != len(strategy.Names()) {
		t.Errorf("picks returned %d sets, want %d", len(body.Data), len(strategy.Names()))
	}
	for _, ps := range body.Data {
		if len(ps.Whites) != model.WhiteCount {
			t.Errorf("strategy %s returned %d whites", ps.Strategy, len(ps.Whites))
		}
	}
}

func TestGetPicksSubset(t *testing.T) {
	s := testServer(t, seedRecords(t))

	rec := doGet(t, s, "/api/v1/picks?strategies=global-hot,overdue")
	var body struct {
		Data []model.PickSet `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode picks response: %v", err)
	}
	if len(body.Data) != 2 {
		t.Errorf("picks returned %d sets, want 2", len(body.Data))
	}
}

func TestGetPicksUnknownStrategy(t *testing.T) {
	rec := doGet(t, testServer(t, seedRecords(t)), "/api/v1/picks?strategies=moonshot")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown strategy status = %d, want 400", rec.Code)
	}
}

func TestGetPicksEmptyStore(t *testing.T) {
	rec := doGet(t, testServer(t, nil), "/api/v1/picks")
	if rec.Code != http.StatusNotFound {
		t.Errorf("picks on empty store status = %d, want 404", rec.Code)
	}
}

func TestChartEndpoints(t *testing.T) {
	s := testServer(t, seedRecords(t))

	for _, path := range []string{"/charts/frequency", "/charts/reds", "/charts/trends?top=3&window=2"} {
		rec := doGet(t, s, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
			continue
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s content type = %s, want text/html", path, ct)
		}
		if !strings.Contains(rec.Body.String(), "echarts") {
			t.Errorf("%s body does not look like a chart page", path)
		}
	}
}
