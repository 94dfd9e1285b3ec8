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

func bookingFixture(sessions *fakeSessions, coaches *fakeCoaches) *BookingService {
	child := &model.Child{Name: "小明", ParentEmail: "parent@example.com"}
	child.ID = 1
	enrollment := &model.Enrollment{ChildID: 1, TotalSessions: 24, Status: model.EnrollmentActive}
	enrollment.ID = 1
	tpl := &model.SessionTemplate{Name: "标准朗读课", Enabled: true}
	tpl.ID = 1

	return NewBookingService(
		sessions,
		&fakeChildren{
			byID:    map[uint]*model.Child{1: child},
			byEmail: map[string]*model.Child{"parent@example.com": child},
		},
		&fakeEnrollments{byID: map[uint]*model.Enrollment{1: enrollment}},
		&fakeTemplates{tpl: tpl},
		NewAssignmentService(coaches),
		&fakeRecorder{botID: "bot-1"},
	)
}

func bookingEvent() BookingEvent {
	return BookingEvent{
		EventID:     "evt-42",
		ParentEmail: "parent@example.com",
		ScheduledAt: time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestCreateFromWebhook(t *testing.T) {
	sessions := newFakeSessions()
	sessions.nextNumber = 7
	coaches := newFakeCoaches()
	next := &model.Coach{Name: "王老师"}
	next.ID = 5
	coaches.next = next

	svc := bookingFixture(sessions, coaches)
	result, err := svc.CreateFromWebhook(context.Background(), bookingEvent())
	require.NoError(t, err)

	assert.False(t, result.NeedsManualAssignment)
	require.NotNil(t, result.CoachID)
	assert.Equal(t, uint(5), *result.CoachID)
	assert.Equal(t, 7, result.SessionNumber)

	session, err := sessions.FindByID(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionScheduled, session.Status)
	assert.Equal(t, model.ModeOnline, session.Mode)
	assert.Equal(t, "evt-42", session.CalendarEventID)
	require.NotNil(t, session.TemplateID)

	// 选中后盖章，驱动下一次轮询
	assert.Equal(t, []uint{5}, coaches.stamped)
}

func TestCreateFromWebhookFallsBackToManualAssignment(t *testing.T) {
	sessions := newFakeSessions()
	svc := bookingFixture(sessions, newFakeCoaches())

	result, err := svc.CreateFromWebhook(context.Background(), bookingEvent())
	require.NoError(t, err)

	// 没有可用教练时课次照常创建，待人工指派
	assert.True(t, result.NeedsManualAssignment)
	assert.Nil(t, result.CoachID)

	session, err := sessions.FindByID(result.SessionID)
	require.NoError(t, err)
	assert.Nil(t, session.CoachID)
}

func TestCreateFromWebhookUnknownParent(t *testing.T) {
	svc := bookingFixture(newFakeSessions(), newFakeCoaches())

	event := bookingEvent()
	event.ParentEmail = "stranger@example.com"
	_, err := svc.CreateFromWebhook(context.Background(), event)
	assert.ErrorIs(t, err, util.ErrChildNotFound)
}
