package service

import (
	"context"
	"time"

	"reading_coach_backend/internal/model"
	"reading_coach_backend/internal/util"
	"reading_coach_backend/pkg/logger"
	"reading_coach_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// BookingService 把日历方的预约事件落成课次：
// 找到孩子与在读课程期，轮询分配教练，线上课顺带预约录制机器人。
type BookingService struct {
	Sessions    SessionStore
	Children    ChildStore
	Enrollments EnrollmentStore
	Templates   TemplateStore
	Assignment  *AssignmentService
	Recorder    RecorderBotClient
}

func NewBookingService(
	sessions SessionStore,
	children ChildStore,
	enrollments EnrollmentStore,
	templates TemplateStore,
	assignment *AssignmentService,
	recorder RecorderBotClient,
) *BookingService {
	return &BookingService{
		Sessions:    sessions,
		Children:    children,
		Enrollments: enrollments,
		Templates:   templates,
		Assignment:  assignment,
		Recorder:    recorder,
	}
}

type BookingEvent struct {
	EventID     string    `json:"eventId" binding:"required"`
	ParentEmail string    `json:"parentEmail" binding:"required,email"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	VideoLink   string    `json:"videoLink"`
}

type BookingResult struct {
	SessionID     uint   `json:"sessionId"`
	SessionNumber int    `json:"sessionNumber"`
	CoachID       *uint  `json:"coachId,omitempty"`
	CoachName     string `json:"coachName,omitempty"`
	// 无可用教练时为 true，运营侧人工指派
	NeedsManualAssignment bool `json:"needsManualAssignment"`
}

// CreateFromWebhook 预约事件建课。教练选不出来不报错，课次照常创建等人工指派。
func (s *BookingService) CreateFromWebhook(ctx context.Context, event BookingEvent) (*BookingResult, error) {
	child, err := s.Children.FindByParentEmail(event.ParentEmail)
	if err != nil {
		return nil, util.ErrChildNotFound
	}

	enrollment, err := s.Enrollments.ActiveForChild(child.ID)
	if err != nil {
		return nil, util.ErrEnrollmentNotFound
	}

	number, err := s.Sessions.NextSessionNumber(enrollment.ID)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ChildID:         child.ID,
		EnrollmentID:    enrollment.ID,
		SessionNumber:   number,
		Mode:            model.ModeOnline,
		Status:          model.SessionScheduled,
		OfflineStatus:   model.OfflineNone,
		ScheduledAt:     event.ScheduledAt,
		CalendarEventID: event.EventID,
	}

	if tpl, err := s.Templates.DefaultTemplate(); err == nil && tpl != nil {
		session.TemplateID = &tpl.ID
	}

	result := &BookingResult{NeedsManualAssignment: true}

	coach, err := s.Assignment.PickCoach(event.ScheduledAt)
	if err != nil {
		logger.Log.Error("booking.coach_pick_failed", zap.Error(err), zap.String("eventId", event.EventID))
	}
	if coach != nil {
		session.CoachID = &coach.ID
		result.CoachID = &coach.ID
		result.CoachName = coach.Name
		result.NeedsManualAssignment = false
	}

	if err := s.Sessions.Create(session); err != nil {
		return nil, err
	}

	if coach != nil {
		if err := s.Assignment.StampAssigned(coach.ID); err != nil {
			logger.Log.Error("booking.assignment_stamp_failed", zap.Error(err), zap.Uint("coachId", coach.ID))
		}
	}

	// 线上课预约录制机器人，失败不影响建课
	go func(sessionID uint, eventID string, startAt time.Time) {
		botCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		botID, err := s.Recorder.Schedule(botCtx, eventID, startAt)
		if err != nil {
			monitoring.BestEffortFailures.WithLabelValues("bot_schedule").Inc()
			logger.Log.Error("booking.bot_schedule_failed", zap.Error(err), zap.Uint("sessionId", sessionID))
			return
		}
		stored, err := s.Sessions.FindByID(sessionID)
		if err != nil {
			return
		}
		stored.BotSessionID = botID
		if err := s.Sessions.Update(stored); err != nil {
			logger.Log.Error("booking.bot_id_save_failed", zap.Error(err), zap.Uint("sessionId", sessionID))
		}
	}(session.ID, event.EventID, event.ScheduledAt)

	result.SessionID = session.ID
	result.SessionNumber = session.SessionNumber
	return result, nil
}
