package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/calendar/calendartest"
	"github.com/zulandar/classlive/internal/config"
	"github.com/zulandar/classlive/internal/db"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/resolve"
	"github.com/zulandar/classlive/internal/schedule"
	"github.com/zulandar/classlive/internal/session"
	"gorm.io/gorm"
)

var shanghai = time.FixedZone("CST", 8*3600)

// wednesdayAfternoon falls in period 5 of week 3 of term (2025, 2).
var wednesdayAfternoon = time.Date(2026, 3, 11, 14, 0, 0, 0, shanghai)

type testEnv struct {
	baseURL string
	fake    *calendartest.Server
	db      *gorm.DB
}

// setupTestRouter serves the API over httptest against a fake calendar and
// an in-memory store holding accounts "a" and "b".
func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := calendartest.NewServer()
	t.Cleanup(fake.Close)
	fake.SetWeekStart(schedule.SemesterID(2025, 2), "02-23")

	store, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, a := range []models.Account{{UID: "a", Name: "Amy", Cookie: "k1"}, {UID: "b", Name: "Ben", Cookie: "k2"}} {
		if err := db.AddAccount(store, a); err != nil {
			t.Fatalf("AddAccount: %v", err)
		}
	}

	source := func(_ context.Context, uids string) ([]session.Session, error) {
		accts, err := db.AccountsByUIDs(store, uids)
		if err != nil {
			return nil, err
		}
		return session.FromAccounts(accts, session.Options{}), nil
	}

	engine := resolve.New(calendar.New(fake.URL, 0), resolve.Options{
		Workers:  4,
		Location: shanghai,
		Now:      func() time.Time { return wednesdayAfternoon },
	})

	router, err := NewRouter(StartOpts{DB: store, Engine: engine, Sessions: source})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{baseURL: srv.URL, fake: fake, db: store}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	tests := []struct {
		name string
		opts StartOpts
		want string
	}{
		{"nil db", StartOpts{}, "db is required"},
		{"nil engine", StartOpts{DB: &gorm.DB{}}, "engine is required"},
		{"nil sessions", StartOpts{DB: &gorm.DB{}, Engine: &resolve.Engine{}}, "session source is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRouter(tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Errorf("err = %v, want db is required", err)
	}
}

func TestHealthz(t *testing.T) {
	env := setupTestRouter(t)
	code, body := get(t, env.baseURL+"/healthz")
	if code != http.StatusOK || !strings.Contains(body, "ok") {
		t.Errorf("GET /healthz = %d %s", code, body)
	}
}

func TestLives(t *testing.T) {
	env := setupTestRouter(t)
	env.fake.SetLives("a", models.Live{ID: 501, Place: "A101", WeekDay: 3, Jie: 3})
	env.fake.SetLives("b", models.Live{ID: 502, Place: "B202", WeekDay: 3, Jie: 5})
	env.fake.SetCourse(501, calendartest.CourseEntry{ID: 501, RoomName: "A101", DeviceCode: "dev-a"})
	env.fake.SetCourse(502, calendartest.CourseEntry{ID: 502, RoomName: "B202", DeviceCode: "dev-b"})
	env.fake.SetStream("dev-a", calendartest.PlayerURL("http://ppt/a", "", "", ""))
	env.fake.SetStream("dev-b", calendartest.PlayerURL("http://ppt/b", "", "", ""))

	// Period 3 picks a's live and b's later one; period 5 only b's.
	tests := []struct {
		name    string
		query   string
		wantPPT map[string]string
	}{
		{"upcoming by default", "", map[string]string{"b": "http://ppt/b"}},
		{"explicit upcoming", "?previous=false", map[string]string{"b": "http://ppt/b"}},
		{"previous period", "?previous=true", map[string]string{"a": "http://ppt/a", "b": "http://ppt/b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, env.baseURL+"/api/lives"+tt.query)
			if code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", code, body)
			}
			var got map[string]resolve.LiveInfo
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatalf("decode: %v\n%s", err, body)
			}
			if len(got) != len(tt.wantPPT) {
				t.Fatalf("got %d entries, want %d: %s", len(got), len(tt.wantPPT), body)
			}
			for uid, ppt := range tt.wantPPT {
				if got[uid].VideoPath.PPT() != ppt {
					t.Errorf("%s: ppt = %q, want %q", uid, got[uid].VideoPath.PPT(), ppt)
				}
			}
		})
	}
}

func TestLives_BadParams(t *testing.T) {
	env := setupTestRouter(t)
	tests := []struct {
		query string
		want  int
	}{
		{"?previous=maybe", http.StatusBadRequest},
		{"?format=xml", http.StatusBadRequest},
		{"?accounts=nobody", http.StatusNotFound},
	}
	for _, tt := range tests {
		code, body := get(t, env.baseURL+"/api/lives"+tt.query)
		if code != tt.want {
			t.Errorf("GET /api/lives%s = %d (%s), want %d", tt.query, code, body, tt.want)
		}
	}
}

func TestLives_ShapeErrorIsBadGateway(t *testing.T) {
	env := setupTestRouter(t)
	env.fake.SetMalformed("lives:a")
	code, _ := get(t, env.baseURL+"/api/lives?accounts=a")
	if code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", code)
	}
}

func TestRooms(t *testing.T) {
	env := setupTestRouter(t)
	env.fake.SetLives("a", models.Live{ID: 900, Place: "C303", WeekDay: 1, Jie: 1})
	env.fake.SetCourse(900, calendartest.CourseEntry{ID: 900, RoomName: "C303", DeviceCode: "dev-c"})

	code, body := get(t, env.baseURL+"/api/rooms?accounts=a&format=yaml")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", code, body)
	}
	if !strings.Contains(body, "C303: dev-c") {
		t.Errorf("body = %s, want C303: dev-c", body)
	}
}

func TestDevice(t *testing.T) {
	env := setupTestRouter(t)
	env.fake.SetStream("dev-x", calendartest.PlayerURL("", "http://tf/x", "", ""))

	code, body := get(t, env.baseURL+"/api/devices/dev-x")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", code, body)
	}
	var vp models.VideoPath
	if err := json.Unmarshal([]byte(body), &vp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if vp.Teacher() != "http://tf/x" || vp.PPTVideo != nil {
		t.Errorf("vp = %+v", vp)
	}
}

func TestRecordings(t *testing.T) {
	env := setupTestRouter(t)
	env.fake.SetCourse(700,
		calendartest.CourseEntry{ID: 700, StartTime: 2000},
		calendartest.CourseEntry{ID: 701, StartTime: 1000},
	)
	env.fake.SetRecording(700, calendartest.PlayerURL("http://ppt/700", "", "", ""))
	env.fake.SetRecording(701, calendartest.PlayerURL("http://ppt/701", "", "", ""))

	code, body := get(t, env.baseURL+"/api/recordings/700")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", code, body)
	}
	if strings.Index(body, `"1000"`) > strings.Index(body, `"2000"`) {
		t.Errorf("recordings not ordered by start time:\n%s", body)
	}

	if code, _ := get(t, env.baseURL+"/api/recordings/abc"); code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", code)
	}
}

func TestSnapshots(t *testing.T) {
	env := setupTestRouter(t)
	base := time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC)
	for i, id := range []string{"one", "two"} {
		snap := &models.Snapshot{BatchID: id, Resolved: i, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.SaveSnapshot(env.db, snap); err != nil {
			t.Fatal(err)
		}
	}

	code, body := get(t, env.baseURL+"/api/snapshots?limit=1")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", code, body)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["batch_id"] != "two" {
		t.Errorf("snapshots = %v, want newest only", got)
	}

	if code, _ := get(t, env.baseURL+"/api/snapshots?limit=-1"); code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", code)
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	env := setupTestRouter(t)
	code, _ := get(t, env.baseURL+"/nonexistent")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}
