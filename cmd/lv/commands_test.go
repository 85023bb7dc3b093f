package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/classlive/internal/calendar/calendartest"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/resolve"
	"github.com/zulandar/classlive/internal/schedule"
)

var shanghai = time.FixedZone("CST", 8*3600)

// wednesdayAfternoon falls in period 5 of week 3 of term (2025, 2).
var wednesdayAfternoon = time.Date(2026, 3, 11, 14, 0, 0, 0, shanghai)

// pinClock fixes the engine clock for the duration of the test.
func pinClock(t *testing.T) {
	t.Helper()
	orig := clock
	clock = func() time.Time { return wednesdayAfternoon }
	t.Cleanup(func() { clock = orig })
}

// writeConfig writes a config pointing at baseURL with a fresh sqlite store.
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "classlive.yaml")
	content := fmt.Sprintf(`workers: 4
timezone: Asia/Shanghai
log:
  level: error
calendar:
  base_url: %s
database:
  driver: sqlite
  path: %s
`, baseURL, filepath.Join(dir, "lv.db"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// run executes lv with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func newFake(t *testing.T) *calendartest.Server {
	t.Helper()
	fake := calendartest.NewServer()
	t.Cleanup(fake.Close)
	fake.SetWeekStart(schedule.SemesterID(2025, 2), "02-23")
	return fake
}

func TestAccountLifecycle(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	out, err := run(t, "", "account", "list", "-c", cfg)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No accounts stored") {
		t.Errorf("empty list output = %q", out)
	}

	if _, err := run(t, "", "account", "add", "2001", "-n", "Amy", "--cookie", "sid=1", "-c", cfg); err != nil {
		t.Fatalf("add with flag: %v", err)
	}
	if _, err := run(t, "sid=2\n", "account", "add", "2002", "-n", "Ben", "-c", cfg); err != nil {
		t.Fatalf("add from stdin: %v", err)
	}

	out, err = run(t, "", "account", "list", "-c", cfg)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"UID", "2001", "Amy", "2002", "Ben"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "", "account", "remove", "2001", "-c", cfg); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := run(t, "", "account", "remove", "2001", "-c", cfg); err == nil {
		t.Error("removing a missing account should fail")
	}
}

func TestAccountAdd_EmptyCookie(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	_, err := run(t, "", "account", "add", "2001", "-c", cfg)
	if err == nil || !strings.Contains(err.Error(), "cookie is required") {
		t.Errorf("err = %v, want cookie is required", err)
	}
}

func TestNow(t *testing.T) {
	pinClock(t)
	fake := newFake(t)
	fake.SetLives("a", models.Live{ID: 501, Place: "A101", WeekDay: 3, Jie: 5})
	fake.SetCourse(501, calendartest.CourseEntry{ID: 501, RoomName: "A101", DeviceCode: "dev-a", RoomID: 11})
	fake.SetStream("dev-a", calendartest.PlayerURL("http://ppt/a", "", "", ""))
	cfg := writeConfig(t, fake.URL)

	if _, err := run(t, "", "account", "add", "a", "-n", "Amy", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, "", "now", "-c", cfg)
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	var got map[string]resolve.LiveInfo
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got["a"].Name != "Amy" || got["a"].Room.DeviceCode != "dev-a" || got["a"].VideoPath.PPT() != "http://ppt/a" {
		t.Errorf("now = %+v", got)
	}

	// The ongoing period (3) also reaches the period-5 live.
	out, err = run(t, "", "now", "--this", "-f", "yaml", "-c", cfg)
	if err != nil {
		t.Fatalf("now (yaml): %v", err)
	}
	if !strings.Contains(out, "a:") || !strings.Contains(out, "deviceCode: dev-a") {
		t.Errorf("yaml output = %s", out)
	}
}

func TestNow_PeriodSelection(t *testing.T) {
	pinClock(t)
	fake := newFake(t)
	// Only a period-3 class; at 14:00 the upcoming period is 5.
	fake.SetLives("a", models.Live{ID: 700, Place: "C303", WeekDay: 3, Jie: 3})
	fake.SetCourse(700, calendartest.CourseEntry{ID: 700, RoomName: "C303", DeviceCode: "dev-c", RoomID: 13})
	fake.SetStream("dev-c", calendartest.PlayerURL("http://ppt/c", "", "", ""))
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantLen int
	}{
		{"upcoming by default", []string{"now"}, 0},
		{"ongoing with --this", []string{"now", "--this"}, 1},
		{"ongoing with -t", []string{"now", "-t"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append(tt.args, "-c", cfg)...)
			if err != nil {
				t.Fatalf("now: %v", err)
			}
			var got map[string]resolve.LiveInfo
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode: %v\n%s", err, out)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("got %d entries, want %d: %s", len(got), tt.wantLen, out)
			}
			if tt.wantLen == 1 && got["a"].Room.DeviceCode != "dev-c" {
				t.Errorf("room = %+v, want dev-c", got["a"].Room)
			}
		})
	}
}

func TestNow_OutputFileAndEmptyResult(t *testing.T) {
	pinClock(t)
	fake := newFake(t)
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "lives.json")
	out, err := run(t, "", "now", "-o", dest, "-c", cfg)
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty when -o is set", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.TrimSpace(string(data)) != "{}" {
		t.Errorf("output file = %q, want {}", data)
	}
}

func TestNow_Errors(t *testing.T) {
	pinClock(t)
	fake := newFake(t)
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := run(t, "", "now", "-f", "toml", "-c", cfg); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := run(t, "", "now", "-a", "ghost", "-c", cfg); err == nil {
		t.Error("unknown account should fail")
	}

	fake.SetMalformed("lives:a")
	if _, err := run(t, "", "now", "-c", cfg); err == nil {
		t.Error("malformed calendar payload should fail the batch")
	}
}

func TestDevice(t *testing.T) {
	fake := newFake(t)
	fake.SetStream("dev-x", calendartest.PlayerURL("", "http://tf/x", "", ""))
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, "", "device", "dev-x", "-c", cfg)
	if err != nil {
		t.Fatalf("device: %v", err)
	}
	var vp models.VideoPath
	if err := json.Unmarshal([]byte(out), &vp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if vp.Teacher() != "http://tf/x" {
		t.Errorf("vp = %+v", vp)
	}
}

func TestDevice_NoAccounts(t *testing.T) {
	fake := newFake(t)
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "device", "dev-x", "-c", cfg); err == nil {
		t.Error("device without accounts should fail")
	}
}

func TestRecordings(t *testing.T) {
	fake := newFake(t)
	fake.SetCourse(700,
		calendartest.CourseEntry{ID: 700, StartTime: 2000},
		calendartest.CourseEntry{ID: 701, StartTime: 1000},
	)
	fake.SetRecording(700, calendartest.PlayerURL("http://ppt/700", "", "", ""))
	fake.SetRecording(701, calendartest.PlayerURL("http://ppt/701", "", "", ""))
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, "", "recordings", "700", "-c", cfg)
	if err != nil {
		t.Fatalf("recordings: %v", err)
	}
	var got map[string]models.VideoPath
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got["1000"].PPT() != "http://ppt/701" || got["2000"].PPT() != "http://ppt/700" {
		t.Errorf("recordings = %+v", got)
	}

	if _, err := run(t, "", "recordings", "abc", "-c", cfg); err == nil {
		t.Error("non-numeric live id should fail")
	}
}

func TestRooms(t *testing.T) {
	pinClock(t)
	fake := newFake(t)
	fake.SetLives("a",
		models.Live{ID: 900, Place: "C303", WeekDay: 1, Jie: 1},
		models.Live{ID: 901, Place: "D404", WeekDay: 2, Jie: 3},
	)
	fake.SetCourse(900, calendartest.CourseEntry{ID: 900, RoomName: "C303", DeviceCode: "dev-c"})
	fake.SetCourse(901, calendartest.CourseEntry{ID: 901, RoomName: "D404", DeviceCode: "dev-d"})
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, "", "rooms", "-c", cfg)
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got["C303"] != "dev-c" || got["D404"] != "dev-d" {
		t.Errorf("rooms = %v", got)
	}
	if n := fake.HitsWithPrefix("lives:"); n != schedule.ScanPages {
		t.Errorf("schedule pages fetched = %d, want %d", n, schedule.ScanPages)
	}
}

func TestWatchOnce(t *testing.T) {
	pinClock(t)
	fake := newFake(t)
	fake.SetLives("a", models.Live{ID: 501, Place: "A101", WeekDay: 3, Jie: 5})
	fake.SetCourse(501, calendartest.CourseEntry{ID: 501, RoomName: "A101", DeviceCode: "dev-a"})
	cfg := writeConfig(t, fake.URL)
	if _, err := run(t, "", "account", "add", "a", "--cookie", "k", "-c", cfg); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, "", "watch", "--once", "-c", cfg)
	if err != nil {
		t.Fatalf("watch --once: %v", err)
	}
	if !strings.Contains(out, "1 of 1 accounts resolved") {
		t.Errorf("watch output = %q", out)
	}

	if _, err := run(t, "", "watch", "--once", "-s", "not a cron", "-c", cfg); err == nil {
		t.Error("invalid schedule should fail")
	}
}
