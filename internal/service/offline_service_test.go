package service

import (
	"context"
	"testing"
	"time"

	"reading_coach_backend/internal/model"
	"reading_coach_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coachID(id uint) *uint { return &id }

func scheduledSession(id uint) *model.Session {
	s := &model.Session{
		ChildID:       1,
		CoachID:       coachID(10),
		EnrollmentID:  1,
		SessionNumber: int(id),
		Mode:          model.ModeOnline,
		Status:        model.SessionScheduled,
		OfflineStatus: model.OfflineNone,
		ScheduledAt:   time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
	}
	s.ID = id
	return s
}

type offlineFixture struct {
	svc      *OfflineService
	sessions *fakeSessions
	coaches  *fakeCoaches
	notifier *fakeNotifier
	calendar *fakeCalendar
	recorder *fakeRecorder
}

func newOfflineFixture(sessions *fakeSessions) *offlineFixture {
	coaches := newFakeCoaches()
	coaches.qualified = 5

	enrollment := &model.Enrollment{ChildID: 1, TotalSessions: 24, Status: model.EnrollmentActive}
	enrollment.ID = 1

	child := &model.Child{Name: "小明", ParentEmail: "parent@example.com"}
	child.ID = 1

	f := &offlineFixture{
		sessions: sessions,
		coaches:  coaches,
		notifier: &fakeNotifier{},
		calendar: &fakeCalendar{},
		recorder: &fakeRecorder{},
	}
	f.svc = NewOfflineService(
		sessions,
		&fakeEnrollments{byID: map[uint]*model.Enrollment{1: enrollment}},
		coaches,
		&fakeChildren{byID: map[uint]*model.Child{1: child}},
		f.calendar,
		f.recorder,
		f.notifier,
		StaticSettings{Config: defaultCoaching()},
	)
	return f
}

func coachActor() Actor {
	return Actor{AccountID: 100, CoachID: coachID(10)}
}

func conversionReq() OfflineConversionReq {
	return OfflineConversionReq{
		Reason:   model.ReasonTravel,
		Location: "市图书馆少儿区",
	}
}

func TestRequestConversionAutoApproved(t *testing.T) {
	f := newOfflineFixture(newFakeSessions(scheduledSession(1)))

	result, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
	require.NoError(t, err)

	assert.Equal(t, model.OfflineAutoApproved, result.Status)
	require.NotNil(t, result.ReportDeadline)

	session, _ := f.sessions.FindByID(1)
	assert.Equal(t, model.ModeOffline, session.Mode)
	assert.Equal(t, model.OfflineAutoApproved, session.OfflineStatus)
	require.NotNil(t, session.ReportDeadline)
	// 截止时间 = 开课时间 + 4 小时
	assert.Equal(t, session.ScheduledAt.Add(4*time.Hour), *session.ReportDeadline)
	assert.Equal(t, model.ReasonTravel, session.OfflineReason)
	assert.Equal(t, "市图书馆少儿区", session.OfflineLocation)
}

func TestRequestConversionPendingWhenUnqualified(t *testing.T) {
	f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
	f.coaches.qualified = 2 // 门槛是 3，不含边界之下

	result, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
	require.NoError(t, err)

	assert.Equal(t, model.OfflinePending, result.Status)
	assert.Nil(t, result.ReportDeadline)

	session, _ := f.sessions.FindByID(1)
	assert.Equal(t, model.ModeOnline, session.Mode)
	assert.Equal(t, model.OfflinePending, session.OfflineStatus)
}

func TestRequestConversionQualificationBoundary(t *testing.T) {
	f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
	f.coaches.qualified = 3 // 恰好达标，含边界

	result, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
	require.NoError(t, err)
	assert.Equal(t, model.OfflineAutoApproved, result.Status)
}

func TestRequestConversionCapBoundary(t *testing.T) {
	// 24 节 * 25% = 6 节上限
	t.Run("sixth offline session allowed", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		f.sessions.offlineCount = 5

		result, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
		require.NoError(t, err)
		assert.Equal(t, model.OfflineAutoApproved, result.Status)
	})

	t.Run("seventh offline session rejected", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		f.sessions.offlineCount = 6

		_, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
		var capErr *util.OfflineCapError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 6, capErr.OfflineCount)
		assert.Equal(t, 6, capErr.MaxOffline)
	})
}

func TestRequestConversionGuards(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions())
		_, err := f.svc.RequestConversion(context.Background(), coachActor(), 99, conversionReq())
		assert.ErrorIs(t, err, util.ErrSessionNotFound)
	})

	t.Run("someone else's session", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		other := Actor{AccountID: 200, CoachID: coachID(11)}
		_, err := f.svc.RequestConversion(context.Background(), other, 1, conversionReq())
		assert.ErrorIs(t, err, util.ErrPermissionDenied)
	})

	t.Run("completed session", func(t *testing.T) {
		s := scheduledSession(1)
		s.Status = model.SessionCompleted
		f := newOfflineFixture(newFakeSessions(s))
		_, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
		assert.ErrorIs(t, err, util.ErrSessionNotScheduled)
	})

	t.Run("already offline", func(t *testing.T) {
		s := scheduledSession(1)
		s.Mode = model.ModeOffline
		f := newOfflineFixture(newFakeSessions(s))
		_, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
		assert.ErrorIs(t, err, util.ErrAlreadyOffline)
	})

	t.Run("request already filed", func(t *testing.T) {
		s := scheduledSession(1)
		s.OfflineStatus = model.OfflineRejected
		f := newOfflineFixture(newFakeSessions(s))
		_, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, conversionReq())
		assert.ErrorIs(t, err, util.ErrOfflineAlreadyRequested)
	})

	t.Run("invalid reason", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		req := conversionReq()
		req.Reason = "vacation"
		_, err := f.svc.RequestConversion(context.Background(), coachActor(), 1, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid offline reason")
	})
}

func TestApproveAndReject(t *testing.T) {
	t.Run("approve pending request", func(t *testing.T) {
		s := scheduledSession(1)
		s.OfflineStatus = model.OfflinePending
		f := newOfflineFixture(newFakeSessions(s))

		result, err := f.svc.Approve(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, model.OfflineApproved, result.Status)

		session, _ := f.sessions.FindByID(1)
		assert.Equal(t, model.ModeOffline, session.Mode)
		require.NotNil(t, session.ReportDeadline)
	})

	t.Run("approve without pending request", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		_, err := f.svc.Approve(context.Background(), 1)
		assert.ErrorIs(t, err, util.ErrOfflineRequestNotPending)
	})

	t.Run("reject pending request", func(t *testing.T) {
		s := scheduledSession(1)
		s.OfflineStatus = model.OfflinePending
		f := newOfflineFixture(newFakeSessions(s))

		require.NoError(t, f.svc.Reject(context.Background(), 1))

		session, _ := f.sessions.FindByID(1)
		assert.Equal(t, model.OfflineRejected, session.OfflineStatus)
		// 拒绝不改上课模式
		assert.Equal(t, model.ModeOnline, session.Mode)
	})

	t.Run("reject without pending request", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		err := f.svc.Reject(context.Background(), 1)
		assert.ErrorIs(t, err, util.ErrOfflineRequestNotPending)
	})
}

func TestAttachAudio(t *testing.T) {
	t.Run("voice note on approved offline session", func(t *testing.T) {
		s := scheduledSession(1)
		s.Mode = model.ModeOffline
		s.OfflineStatus = model.OfflineAutoApproved
		f := newOfflineFixture(newFakeSessions(s))

		err := f.svc.AttachAudio(coachActor(), 1, util.AudioTypeVoiceNote, "sessions/1/note.m4a")
		require.NoError(t, err)

		session, _ := f.sessions.FindByID(1)
		assert.Equal(t, "sessions/1/note.m4a", session.VoiceNotePath)
	})

	t.Run("reading clip on approved offline session", func(t *testing.T) {
		s := scheduledSession(1)
		s.Mode = model.ModeOffline
		s.OfflineStatus = model.OfflineApproved
		f := newOfflineFixture(newFakeSessions(s))

		err := f.svc.AttachAudio(coachActor(), 1, util.AudioTypeReadingClip, "sessions/1/clip.m4a")
		require.NoError(t, err)

		session, _ := f.sessions.FindByID(1)
		assert.Equal(t, "sessions/1/clip.m4a", session.ReadingClipPath)
	})

	t.Run("rejected for online session", func(t *testing.T) {
		f := newOfflineFixture(newFakeSessions(scheduledSession(1)))
		err := f.svc.AttachAudio(coachActor(), 1, util.AudioTypeVoiceNote, "sessions/1/note.m4a")
		assert.ErrorIs(t, err, util.ErrOfflineNotApproved)
	})
}
