package service

import (
	"testing"
	"time"

	"reading_coach_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickCoachExcludesCoachesOnLeave(t *testing.T) {
	coaches := newFakeCoaches()
	coaches.onLeave = []uint{3, 7}
	next := &model.Coach{Name: "王老师"}
	next.ID = 5
	coaches.next = next

	svc := NewAssignmentService(coaches)
	picked, err := svc.PickCoach(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NotNil(t, picked)
	assert.Equal(t, uint(5), picked.ID)
	assert.Equal(t, []uint{3, 7}, coaches.gotExclude)
}

func TestPickCoachReturnsNilWhenNobodyAvailable(t *testing.T) {
	coaches := newFakeCoaches()
	svc := NewAssignmentService(coaches)

	// 无人可选不是错误，调用方回退人工指派
	picked, err := svc.PickCoach(time.Now())
	require.NoError(t, err)
	assert.Nil(t, picked)
}

func TestPickCoachPropagatesLeaveLookupError(t *testing.T) {
	coaches := newFakeCoaches()
	coaches.onLeaveErr = errStore
	svc := NewAssignmentService(coaches)

	_, err := svc.PickCoach(time.Now())
	assert.Error(t, err)
}

func TestStampAssigned(t *testing.T) {
	coaches := newFakeCoaches()
	svc := NewAssignmentService(coaches)

	require.NoError(t, svc.StampAssigned(5))
	assert.Equal(t, []uint{5}, coaches.stamped)
}
