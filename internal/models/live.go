package models

import "strings"

// Live is one scheduled classroom broadcast from the academic calendar.
type Live struct {
	ID      int64  `json:"id" yaml:"id"`
	Place   string `json:"place" yaml:"place"`
	WeekDay int    `json:"weekDay" yaml:"weekDay"`
	Jie     int    `json:"jie" yaml:"jie"`
}

// Lesson is one entry of a course listing, used for recorded lectures.
// StartTime is in milliseconds since the epoch.
type Lesson struct {
	ID        int64 `json:"id" yaml:"id"`
	StartTime int64 `json:"start_time" yaml:"start_time"`
}

// Room describes the classroom a live is broadcast from.
type Room struct {
	Name       string `json:"schoolRoomName" yaml:"schoolRoomName"`
	DeviceCode string `json:"deviceCode" yaml:"deviceCode"`
	RoomID     int    `json:"schoolRoomId" yaml:"schoolRoomId"`
	ID         int64  `json:"id" yaml:"id"`
}

// Trimmed returns a copy of r with surrounding whitespace removed from Name.
func (r Room) Trimmed() Room {
	r.Name = strings.TrimSpace(r.Name)
	return r
}

// VideoPath holds the stream variants of one live or recording. A nil field
// means the variant is not being published.
type VideoPath struct {
	PPTVideo     *string `json:"ppt_video" yaml:"ppt_video"`
	TeacherFull  *string `json:"teacher_full" yaml:"teacher_full"`
	TeacherTrack *string `json:"teacher_track" yaml:"teacher_track"`
	StudentFull  *string `json:"student_full" yaml:"student_full"`
}

// IsDefault reports whether no stream variant is available.
func (v VideoPath) IsDefault() bool {
	return v.PPTVideo == nil && v.TeacherFull == nil && v.TeacherTrack == nil && v.StudentFull == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PPT returns the slides stream URL, or "" when absent.
func (v VideoPath) PPT() string { return deref(v.PPTVideo) }

// Teacher returns the wide teacher stream URL, or "" when absent.
func (v VideoPath) Teacher() string { return deref(v.TeacherFull) }

// Tracking returns the teacher-tracking stream URL, or "" when absent.
func (v VideoPath) Tracking() string { return deref(v.TeacherTrack) }

// Student returns the wide student stream URL, or "" when absent.
func (v VideoPath) Student() string { return deref(v.StudentFull) }

// Phase tags a unit of progress reporting.
type Phase int

const (
	ResolvingLives Phase = iota
	ResolvingRooms
	ResolvingDeviceCodes
	ResolvingRecordings
)

func (p Phase) String() string {
	switch p {
	case ResolvingLives:
		return "resolving lives"
	case ResolvingRooms:
		return "resolving rooms"
	case ResolvingDeviceCodes:
		return "resolving device codes"
	case ResolvingRecordings:
		return "resolving recordings"
	default:
		return "unknown"
	}
}
