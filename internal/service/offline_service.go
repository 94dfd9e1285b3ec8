package service

import (
	"context"
	"errors"
	"fmt"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/internal/util"
	"reading_coach_backend/pkg/logger"
	"reading_coach_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// Actor 业务层的请求者身份，控制层从 JWT claims 解出
type Actor struct {
	AccountID uint
	CoachID   *uint
	Admin     bool
}

func (a Actor) ownsCoach(coachID *uint) bool {
	if a.Admin {
		return true
	}
	return a.CoachID != nil && coachID != nil && *a.CoachID == *coachID
}

// OfflineService 线上课转线下的状态机：
// none → pending / auto_approved，pending → approved / rejected，均为终态。
type OfflineService struct {
	Sessions    SessionStore
	Enrollments EnrollmentStore
	Coaches     CoachStore
	Children    ChildStore
	Calendar    CalendarClient
	Recorder    RecorderBotClient
	Notifier    ParentNotifier
	Settings    SettingsProvider
}

func NewOfflineService(
	sessions SessionStore,
	enrollments EnrollmentStore,
	coaches CoachStore,
	children ChildStore,
	calendar CalendarClient,
	recorder RecorderBotClient,
	notifier ParentNotifier,
	settings SettingsProvider,
) *OfflineService {
	return &OfflineService{
		Sessions:    sessions,
		Enrollments: enrollments,
		Coaches:     coaches,
		Children:    children,
		Calendar:    calendar,
		Recorder:    recorder,
		Notifier:    notifier,
		Settings:    settings,
	}
}

type OfflineConversionReq struct {
	Reason       model.OfflineReason `json:"reason" binding:"required"`
	Detail       string              `json:"detail"`
	Location     string              `json:"location" binding:"required"`
	LocationType string              `json:"locationType"`
}

type OfflineConversionResult struct {
	Status         model.OfflineRequestStatus `json:"status"`
	ReportDeadline *time.Time                 `json:"reportDeadline,omitempty"`
	Message        string                     `json:"message,omitempty"`
}

var validOfflineReasons = map[model.OfflineReason]bool{
	model.ReasonTravel:           true,
	model.ReasonParentPreference: true,
	model.ReasonConnectivity:     true,
	model.ReasonOther:            true,
}

// RequestConversion 教练申请把某节课转为线下。
// 入口守卫全部通过后：达标教练立即自动批准，否则进入待审批。
func (s *OfflineService) RequestConversion(ctx context.Context, actor Actor, sessionID uint, req OfflineConversionReq) (*OfflineConversionResult, error) {
	if !validOfflineReasons[req.Reason] {
		return nil, fmt.Errorf("invalid offline reason: %s", req.Reason)
	}

	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	if !actor.ownsCoach(session.CoachID) {
		return nil, util.ErrPermissionDenied
	}

	// 入口守卫
	if session.Status != model.SessionScheduled {
		return nil, util.ErrSessionNotScheduled
	}
	if session.Mode == model.ModeOffline {
		return nil, util.ErrAlreadyOffline
	}
	if session.OfflineStatus != model.OfflineNone {
		return nil, util.ErrOfflineAlreadyRequested
	}

	cfg := s.Settings.Coaching(ctx)

	// 每期课程线下占比上限（floor 取整），超限直接拒绝，与资质无关
	enrollment, err := s.Enrollments.FindByID(session.EnrollmentID)
	if err != nil {
		return nil, util.ErrEnrollmentNotFound
	}
	offlineCount, err := s.Sessions.OfflineCountByEnrollment(session.EnrollmentID)
	if err != nil {
		return nil, err
	}
	maxOffline := enrollment.TotalSessions * cfg.OfflineMaxPercent / 100
	if int(offlineCount) >= maxOffline {
		monitoring.OfflineRequests.WithLabelValues("rejected_cap").Inc()
		return nil, &util.OfflineCapError{OfflineCount: int(offlineCount), MaxOffline: maxOffline}
	}

	session.OfflineReason = req.Reason
	session.OfflineDetail = req.Detail
	session.OfflineLocation = req.Location
	session.OfflineLocationType = req.LocationType

	if session.CoachID == nil || !s.isQualified(*session.CoachID, cfg.QualifyMinSessions, cfg.QualifyMinScore) {
		session.OfflineStatus = model.OfflinePending
		if err := s.Sessions.Update(session); err != nil {
			return nil, err
		}
		monitoring.OfflineRequests.WithLabelValues("pending").Inc()
		return &OfflineConversionResult{
			Status:  model.OfflinePending,
			Message: "申请已提交，等待管理员审批",
		}, nil
	}

	deadline := session.ScheduledAt.Add(time.Duration(cfg.ReportDeadlineHours) * time.Hour)
	session.Mode = model.ModeOffline
	session.OfflineStatus = model.OfflineAutoApproved
	session.ReportDeadline = &deadline
	if err := s.Sessions.Update(session); err != nil {
		return nil, err
	}

	monitoring.OfflineRequests.WithLabelValues("auto_approved").Inc()
	s.dispatchOfflineSideEffects(session)

	return &OfflineConversionResult{
		Status:         model.OfflineAutoApproved,
		ReportDeadline: &deadline,
	}, nil
}

// isQualified 达标线上完课数 ≥ 配置最小值（含边界）
func (s *OfflineService) isQualified(coachID uint, minSessions, minScore int) bool {
	count, err := s.Coaches.QualifiedOnlineSessionCount(coachID, float64(minScore)/100.0)
	if err != nil {
		logger.Log.Error("offline.qualification_check_failed", zap.Error(err), zap.Uint("coachId", coachID))
		return false
	}
	return count >= int64(minSessions)
}

// dispatchOfflineSideEffects 批准后的副作用各自尽力而为：
// 日历改线下地点、取消录制机器人、通知家长。任何失败只记日志，不影响申请结果。
func (s *OfflineService) dispatchOfflineSideEffects(session *model.Session) {
	sessionID := session.ID
	eventID := session.CalendarEventID
	botID := session.BotSessionID
	location := session.OfflineLocation
	childID := session.ChildID

	if eventID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Calendar.MarkOffline(ctx, eventID, location); err != nil {
				monitoring.BestEffortFailures.WithLabelValues("calendar_update").Inc()
				logger.Log.Error("offline.calendar_update_failed",
					zap.Error(err), zap.Uint("sessionId", sessionID), zap.String("eventId", eventID))
			}
		}()
	}

	if botID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Recorder.Cancel(ctx, botID); err != nil {
				monitoring.BestEffortFailures.WithLabelValues("bot_cancel").Inc()
				logger.Log.Error("offline.bot_cancel_failed",
					zap.Error(err), zap.Uint("sessionId", sessionID), zap.String("botId", botID))
			}
		}()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		child, err := s.Children.FindByID(childID)
		if err != nil {
			monitoring.BestEffortFailures.WithLabelValues("parent_notify").Inc()
			logger.Log.Error("offline.notify_child_lookup_failed", zap.Error(err), zap.Uint("childId", childID))
			return
		}
		text := fmt.Sprintf("本节课已改为线下进行，地点：%s", location)
		if err := s.Notifier.SendParentMessage(ctx, child, text); err != nil {
			monitoring.BestEffortFailures.WithLabelValues("parent_notify").Inc()
			logger.Log.Error("offline.parent_notify_failed",
				zap.Error(err), zap.Uint("sessionId", sessionID))
		}
	}()
}

// Approve 管理员把待审批申请转为已批准（简单更新路径）
func (s *OfflineService) Approve(ctx context.Context, sessionID uint) (*OfflineConversionResult, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	if session.OfflineStatus != model.OfflinePending {
		return nil, util.ErrOfflineRequestNotPending
	}
	if session.Status != model.SessionScheduled {
		return nil, util.ErrSessionNotScheduled
	}

	cfg := s.Settings.Coaching(ctx)
	deadline := session.ScheduledAt.Add(time.Duration(cfg.ReportDeadlineHours) * time.Hour)
	session.Mode = model.ModeOffline
	session.OfflineStatus = model.OfflineApproved
	session.ReportDeadline = &deadline
	if err := s.Sessions.Update(session); err != nil {
		return nil, err
	}

	monitoring.OfflineRequests.WithLabelValues("approved").Inc()
	s.dispatchOfflineSideEffects(session)

	return &OfflineConversionResult{
		Status:         model.OfflineApproved,
		ReportDeadline: &deadline,
	}, nil
}

// Reject 管理员拒绝待审批申请
func (s *OfflineService) Reject(ctx context.Context, sessionID uint) error {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return util.ErrSessionNotFound
	}
	if session.OfflineStatus != model.OfflinePending {
		return util.ErrOfflineRequestNotPending
	}

	session.OfflineStatus = model.OfflineRejected
	if err := s.Sessions.Update(session); err != nil {
		return err
	}

	monitoring.OfflineRequests.WithLabelValues("rejected").Inc()
	return nil
}

// AttachAudio 记录已上传音频的存储路径。只有已批准的线下课允许附加音频。
func (s *OfflineService) AttachAudio(actor Actor, sessionID uint, audioType, path string) error {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return util.ErrSessionNotFound
	}
	if !actor.ownsCoach(session.CoachID) {
		return util.ErrPermissionDenied
	}
	if session.Mode != model.ModeOffline ||
		(session.OfflineStatus != model.OfflineApproved && session.OfflineStatus != model.OfflineAutoApproved) {
		return util.ErrOfflineNotApproved
	}

	switch audioType {
	case util.AudioTypeVoiceNote:
		session.VoiceNotePath = path
	case util.AudioTypeReadingClip:
		session.ReadingClipPath = path
	default:
		return errors.New("unknown audio type: " + audioType)
	}

	return s.Sessions.Update(session)
}
