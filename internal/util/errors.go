package util

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrChildNotFound      = errors.New("child not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrSessionNotScheduled      = errors.New("session is not in scheduled status")
	ErrSessionAlreadyCompleted  = errors.New("session already completed, report already submitted")
	ErrAlreadyOffline           = errors.New("session is already offline")
	ErrOfflineAlreadyRequested  = errors.New("offline conversion already requested for this session")
	ErrOfflineRequestNotPending = errors.New("offline request is not pending")
	ErrOfflineNotApproved       = errors.New("session is not an approved offline session")
	ErrVoiceNoteRequired        = errors.New("voice note must be uploaded before submitting an offline report")

	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrInvalidAudioType = errors.New("unsupported audio encoding")
)

// OfflineCapError 线下课达到上限时的拒绝，带当前计数和上限，便于前端给出明确文案
type OfflineCapError struct {
	OfflineCount int `json:"offlineCount"`
	MaxOffline   int `json:"maxOffline"`
}

func (e *OfflineCapError) Error() string {
	return fmt.Sprintf("offline session limit reached (%d/%d)", e.OfflineCount, e.MaxOffline)
}
