package academy

import (
	"context"
	"net/http"
	"time"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// QRCode is the check-in code a coach shows at the start of a training
type QRCode struct {
	TrainingID string    `json:"trainingId"`
	Code       string    `json:"code"`
	Image      string    `json:"qrCode,omitempty"` // PNG data URL rendered by the backend
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the code can no longer be used at now
func (q *QRCode) Expired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && !now.Before(q.ExpiresAt)
}

type checkInRequest struct {
	Code string `json:"code" validate:"required,notblank"`
}

type CheckInResult struct {
	TrainingID       string           `json:"trainingId"`
	PlayerID         string           `json:"playerId"`
	Status           AttendanceStatus `json:"status"`
	CheckedInAt      time.Time        `json:"checkedInAt"`
	AlreadyCheckedIn bool             `json:"alreadyCheckedIn,omitempty"`
}

type AttendanceRecord struct {
	PlayerID    string           `json:"playerId"`
	PlayerName  string           `json:"playerName,omitempty"`
	Status      AttendanceStatus `json:"status"`
	CheckedInAt *time.Time       `json:"checkedInAt,omitempty"`
}

type AttendanceService struct {
	service
}

// TrainingQRCode asks the backend for the current check-in code of a training
func (s *AttendanceService) TrainingQRCode(ctx context.Context, trainingID string) (*QRCode, error) {
	var qr QRCode
	if err := s.get(ctx, resourcePath("qr", "trainings", trainingID, "qr-code"), nil, &qr); err != nil {
		return nil, err
	}
	if qr.TrainingID == "" {
		qr.TrainingID = trainingID
	}
	return &qr, nil
}

// CheckIn records the authenticated player's attendance with a scanned code
func (s *AttendanceService) CheckIn(ctx context.Context, code string) (*CheckInResult, error) {
	var res CheckInResult
	if err := s.send(ctx, http.MethodPost, "/qr/check-in", checkInRequest{Code: code}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AttendanceService) TrainingAttendance(ctx context.Context, trainingID string) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	if err := s.get(ctx, resourcePath("trainings", trainingID, "attendance"), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Summary counts records per status
func Summary(records []AttendanceRecord) map[AttendanceStatus]int {
	counts := make(map[AttendanceStatus]int, 3)
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}
