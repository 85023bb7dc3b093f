// Package calendartest provides an in-process fake of the calendar service
// for tests.
package calendartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/zulandar/classlive/internal/models"
)

// CourseEntry is one row of a single-course listing. It carries both the room
// and the lesson fields the real service returns.
type CourseEntry struct {
	ID         int64
	RoomName   string
	DeviceCode string
	RoomID     int
	StartTime  int64
}

// LiveQuery records the parameters of one live listing request.
type LiveQuery struct {
	UID      string
	Week     int
	TermYear int
	Term     int
}

// Server is a fake calendar service. Configure it with the Set* methods and
// inspect traffic with Hits and LiveQueries.
type Server struct {
	srv *httptest.Server
	URL string

	mu          sync.Mutex
	lives       map[string][]models.Live
	courses     map[int64][]CourseEntry
	weekStarts  map[int]string
	streams     map[string]string
	recordings  map[int64]string
	status      map[string]int
	malformed   map[string]bool
	rejected    map[string]bool
	hits        map[string]int
	liveQueries []LiveQuery
}

// NewServer starts a fake server. Close it with Close.
func NewServer() *Server {
	s := &Server{
		lives:      make(map[string][]models.Live),
		courses:    make(map[int64][]CourseEntry),
		weekStarts: make(map[int]string),
		streams:    make(map[string]string),
		recordings: make(map[int64]string),
		status:     make(map[string]int),
		malformed:  make(map[string]bool),
		rejected:   make(map[string]bool),
		hits:       make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/frontLive/listStudentCourseLivePage", s.handleLives)
	mux.HandleFunc("/live/listSignleCourse", s.handleCourse)
	mux.HandleFunc("/frontLive/getWeekDetail", s.handleWeek)
	mux.HandleFunc("/live/getViewUrlNoCourseLive", s.handleStream)
	mux.HandleFunc("/live/getViewUrlHls", s.handleRecording)
	s.srv = httptest.NewServer(mux)
	s.URL = s.srv.URL
	return s
}

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// SetLives sets the lives every listing for uid returns.
func (s *Server) SetLives(uid string, lives ...models.Live) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lives[uid] = lives
}

// SetCourse sets the single-course listing for liveID.
func (s *Server) SetCourse(liveID int64, entries ...CourseEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[liveID] = entries
}

// SetWeekStart sets the week-1 start date ("MM-DD") of a semester.
func (s *Server) SetWeekStart(semesterID int, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekStarts[semesterID] = date
}

// SetStream sets the player URL body returned for a device code.
func (s *Server) SetStream(deviceCode, playerURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[deviceCode] = playerURL
}

// SetRecording sets the player URL body returned for a recorded live.
func (s *Server) SetRecording(liveID int64, playerURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings[liveID] = playerURL
}

// SetStatus makes requests for key answer with code. Keys are
// "lives:<uid>", "course:<liveID>", "week:<semesterID>",
// "stream:<deviceCode>" and "recording:<liveID>".
func (s *Server) SetStatus(key string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[key] = code
}

// SetMalformed makes requests for key answer with a body that is not JSON.
func (s *Server) SetMalformed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed[key] = true
}

// RejectUser makes course listings requested by uid answer 401, as they do
// for an expired cookie. Hits still count under "course:<liveID>".
func (s *Server) RejectUser(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[uid] = true
}

// Hits returns how many requests were made for key.
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

// HitsWithPrefix sums Hits over every key starting with prefix.
func (s *Server) HitsWithPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.hits {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			n += v
		}
	}
	return n
}

// LiveQueries returns the live listing requests seen so far.
func (s *Server) LiveQueries() []LiveQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LiveQuery, len(s.liveQueries))
	copy(out, s.liveQueries)
	return out
}

// intercept counts the hit and applies injected failures. It reports whether
// the handler should continue.
func (s *Server) intercept(w http.ResponseWriter, key string) bool {
	s.mu.Lock()
	s.hits[key]++
	code, failed := s.status[key]
	bad := s.malformed[key]
	s.mu.Unlock()

	if failed {
		http.Error(w, http.StatusText(code), code)
		return false
	}
	if bad {
		w.Write([]byte("<html>session expired</html>"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uid := q.Get("userId")
	week, _ := strconv.Atoi(q.Get("week"))
	termYear, _ := strconv.Atoi(q.Get("termYear"))
	term, _ := strconv.Atoi(q.Get("termId"))

	s.mu.Lock()
	s.liveQueries = append(s.liveQueries, LiveQuery{UID: uid, Week: week, TermYear: termYear, Term: term})
	lives := s.lives[uid]
	s.mu.Unlock()

	if !s.intercept(w, "lives:"+uid) {
		return
	}
	out := make([]map[string]any, 0, len(lives))
	for _, l := range lives {
		out = append(out, map[string]any{"id": l.ID, "place": l.Place, "weekDay": l.WeekDay, "jie": l.Jie})
	}
	writeJSON(w, out)
}

func (s *Server) handleCourse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, _ := strconv.ParseInt(q.Get("liveId"), 10, 64)
	if !s.intercept(w, fmt.Sprintf("course:%d", id)) {
		return
	}
	s.mu.Lock()
	entries := s.courses[id]
	rejected := s.rejected[q.Get("uId")]
	s.mu.Unlock()
	if rejected {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":             e.ID,
			"schoolRoomName": e.RoomName,
			"deviceCode":     e.DeviceCode,
			"schoolRoomId":   e.RoomID,
			"startTime":      map[string]any{"time": e.StartTime},
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	sem, _ := strconv.Atoi(r.URL.Query().Get("semesterId"))
	if !s.intercept(w, fmt.Sprintf("week:%d", sem)) {
		return
	}
	s.mu.Lock()
	date, ok := s.weekStarts[sem]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"date1": date, "date7": ""})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("deviceCode")
	if !s.intercept(w, "stream:"+code) {
		return
	}
	s.mu.Lock()
	body := s.streams[code]
	s.mu.Unlock()
	w.Write([]byte(body))
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("liveId"), 10, 64)
	if !s.intercept(w, fmt.Sprintf("recording:%d", id)) {
		return
	}
	s.mu.Lock()
	body := s.recordings[id]
	s.mu.Unlock()
	w.Write([]byte(body))
}

// PlayerURL builds a player URL whose info parameter carries the given
// stream variants. Empty strings become JSON nulls.
func PlayerURL(ppt, teacherFull, teacherTrack, studentFull string) string {
	orNull := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}
	info, _ := json.Marshal(map[string]any{
		"videoPath": map[string]any{
			"pptVideo":     orNull(ppt),
			"teacherFull":  orNull(teacherFull),
			"teacherTrack": orNull(teacherTrack),
			"studentFull":  orNull(studentFull),
		},
	})
	return "http://player.example/live/index.html?info=" + url.QueryEscape(string(info))
}
