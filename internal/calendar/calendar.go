// Package calendar is the client for the campus live/course calendar
// service.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/session"
)

// DefaultBaseURL is the production calendar host.
const DefaultBaseURL = "http://newesxidian.chaoxing.com"

// DefaultFID is the institution id sent with every request.
const DefaultFID = 16820

const (
	pathListLives   = "/frontLive/listStudentCourseLivePage"
	pathListCourse  = "/live/listSignleCourse"
	pathWeekDetail  = "/frontLive/getWeekDetail"
	pathLiveView    = "/live/getViewUrlNoCourseLive"
	pathRecordView  = "/live/getViewUrlHls"
	maxPayloadBytes = 16 << 20
)

// Client issues calendar requests on behalf of a session.
type Client struct {
	BaseURL string
	FID     int
}

// New returns a Client for baseURL. Empty values fall back to the defaults.
func New(baseURL string, fid int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if fid == 0 {
		fid = DefaultFID
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), FID: fid}
}

func (c *Client) url(path string, q url.Values) string {
	return c.BaseURL + path + "?" + q.Encode()
}

// fetch performs the GET and returns the body of a 2xx response.
func fetch(ctx context.Context, s session.Session, u string) ([]byte, error) {
	resp, err := s.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayloadBytes))
		return nil, &StatusError{URL: u, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("calendar: read %s: %w", u, err)
	}
	return body, nil
}

func fetchJSON(ctx context.Context, s session.Session, u string, v any) error {
	body, err := fetch(ctx, s, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ShapeError{URL: u, Err: err}
	}
	return nil
}

type wireLive struct {
	ID      int64  `json:"id"`
	Place   string `json:"place"`
	WeekDay int    `json:"weekDay"`
	Jie     int    `json:"jie"`
}

// ListLives returns the lives scheduled for the account in the given week.
func (c *Client) ListLives(ctx context.Context, s session.Session, week, termYear, term int) ([]models.Live, error) {
	q := url.Values{}
	q.Set("fid", strconv.Itoa(c.FID))
	q.Set("userId", s.UID())
	q.Set("week", strconv.Itoa(week))
	q.Set("termYear", strconv.Itoa(termYear))
	q.Set("termId", strconv.Itoa(term))
	q.Set("type", "1")

	var wire []wireLive
	if err := fetchJSON(ctx, s, c.url(pathListLives, q), &wire); err != nil {
		return nil, err
	}
	lives := make([]models.Live, 0, len(wire))
	for _, w := range wire {
		lives = append(lives, models.Live{ID: w.ID, Place: w.Place, WeekDay: w.WeekDay, Jie: w.Jie})
	}
	return lives, nil
}

func (c *Client) courseURL(s session.Session, liveID int64) string {
	q := url.Values{}
	q.Set("fid", strconv.Itoa(c.FID))
	q.Set("liveId", strconv.FormatInt(liveID, 10))
	q.Set("uId", s.UID())
	return c.url(pathListCourse, q)
}

type wireRoom struct {
	Name       string `json:"schoolRoomName"`
	DeviceCode string `json:"deviceCode"`
	RoomID     int    `json:"schoolRoomId"`
	ID         int64  `json:"id"`
}

// Room returns the room hosting liveID, or nil when the course listing has
// no entry for it.
func (c *Client) Room(ctx context.Context, s session.Session, liveID int64) (*models.Room, error) {
	var wire []wireRoom
	if err := fetchJSON(ctx, s, c.courseURL(s, liveID), &wire); err != nil {
		return nil, err
	}
	for _, w := range wire {
		if w.ID == liveID {
			r := models.Room{Name: w.Name, DeviceCode: w.DeviceCode, RoomID: w.RoomID, ID: w.ID}.Trimmed()
			return &r, nil
		}
	}
	return nil, nil
}

type wireLesson struct {
	ID        int64 `json:"id"`
	StartTime struct {
		Time int64 `json:"time"`
	} `json:"startTime"`
}

// Lessons returns every lesson of the course that liveID belongs to.
func (c *Client) Lessons(ctx context.Context, s session.Session, liveID int64) ([]models.Lesson, error) {
	var wire []wireLesson
	if err := fetchJSON(ctx, s, c.courseURL(s, liveID), &wire); err != nil {
		return nil, err
	}
	lessons := make([]models.Lesson, 0, len(wire))
	for _, w := range wire {
		lessons = append(lessons, models.Lesson{ID: w.ID, StartTime: w.StartTime.Time})
	}
	return lessons, nil
}

// MonthDay is a calendar date without a year.
type MonthDay struct {
	Month int
	Day   int
}

// Number returns month*100+day, which orders dates within a year.
func (m MonthDay) Number() int {
	return m.Month*100 + m.Day
}

// ParseMonthDay accepts "MM-DD" or "YYYY-MM-DD".
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) == 3 {
		parts = parts[1:]
	}
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("date %q: want MM-DD", s)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return MonthDay{}, fmt.Errorf("date %q: month: %w", s, err)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return MonthDay{}, fmt.Errorf("date %q: day: %w", s, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return MonthDay{}, fmt.Errorf("date %q: out of range", s)
	}
	return MonthDay{Month: month, Day: day}, nil
}

// WeekStart returns the first day of the given week of a semester.
func (c *Client) WeekStart(ctx context.Context, s session.Session, week, semesterID int) (MonthDay, error) {
	q := url.Values{}
	q.Set("week", strconv.Itoa(week))
	q.Set("semesterId", strconv.Itoa(semesterID))
	u := c.url(pathWeekDetail, q)

	var detail struct {
		Date1 string `json:"date1"`
	}
	if err := fetchJSON(ctx, s, u, &detail); err != nil {
		return MonthDay{}, err
	}
	md, err := ParseMonthDay(detail.Date1)
	if err != nil {
		return MonthDay{}, &ShapeError{URL: u, Err: err}
	}
	return md, nil
}

// LiveVideoPath resolves the current streams of a classroom device.
func (c *Client) LiveVideoPath(ctx context.Context, s session.Session, deviceCode string) (models.VideoPath, error) {
	q := url.Values{}
	q.Set("deviceCode", deviceCode)
	q.Set("status", "1")
	q.Set("fid", strconv.Itoa(c.FID))
	return c.videoPath(ctx, s, c.url(pathLiveView, q))
}

// RecordingVideoPath resolves the recorded streams of one lesson.
func (c *Client) RecordingVideoPath(ctx context.Context, s session.Session, liveID int64) (models.VideoPath, error) {
	q := url.Values{}
	q.Set("liveId", strconv.FormatInt(liveID, 10))
	q.Set("status", "2")
	q.Set("jie", "")
	q.Set("isStudent", "")
	return c.videoPath(ctx, s, c.url(pathRecordView, q))
}

func (c *Client) videoPath(ctx context.Context, s session.Session, u string) (models.VideoPath, error) {
	body, err := fetch(ctx, s, u)
	if err != nil {
		return models.VideoPath{}, err
	}
	vp, err := ParseVideoPath(strings.TrimSpace(string(body)))
	if err != nil {
		return models.VideoPath{}, &ShapeError{URL: u, Err: err}
	}
	return vp, nil
}

// ParseVideoPath extracts the stream variants carried in the info query
// parameter of a player URL. A URL without info yields the default
// VideoPath and no error.
func ParseVideoPath(rawURL string) (models.VideoPath, error) {
	_, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return models.VideoPath{}, nil
	}
	var encoded string
	found := false
	for _, kv := range strings.Split(query, "&") {
		if v, ok := strings.CutPrefix(kv, "info="); ok {
			encoded, found = v, true
			break
		}
	}
	if !found {
		return models.VideoPath{}, nil
	}

	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return models.VideoPath{}, fmt.Errorf("decode info: %w", err)
	}
	var info struct {
		VideoPath *wireVideoPath `json:"videoPath"`
	}
	if err := json.Unmarshal([]byte(decoded), &info); err != nil {
		return models.VideoPath{}, fmt.Errorf("parse info: %w", err)
	}
	if info.VideoPath == nil {
		return models.VideoPath{}, fmt.Errorf("parse info: videoPath missing")
	}
	w := info.VideoPath
	return models.VideoPath{
		PPTVideo:     w.PPTVideo,
		TeacherFull:  w.TeacherFull,
		TeacherTrack: w.TeacherTrack,
		StudentFull:  w.StudentFull,
	}, nil
}

type wireVideoPath struct {
	PPTVideo     *string `json:"pptVideo"`
	TeacherFull  *string `json:"teacherFull"`
	TeacherTrack *string `json:"teacherTrack"`
	StudentFull  *string `json:"studentFull"`
}
