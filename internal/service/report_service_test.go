package service

import (
	"encoding/json"
	"testing"

	"reading_coach_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixture() (*ReportService, *fakeActivities, *fakeEvents) {
	activities := &fakeActivities{}
	events := &fakeEvents{}
	return NewReportService(activities, events), activities, events
}

func TestRecordSavesEntriesVerbatim(t *testing.T) {
	svc, activities, _ := reportFixture()
	session := scheduledSession(1)

	reported := []ReportedActivity{
		{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted, PlannedMinutes: 5, ActualSeconds: 280},
		{Index: 1, Name: "新词认读", Outcome: model.OutcomePartial, PlannedMinutes: 10, ActualSeconds: 540, Note: "认到一半走神"},
		{Index: 1, Name: "新词认读", Outcome: model.OutcomeCompleted, PlannedMinutes: 10, ActualSeconds: 300},
	}

	summary, err := svc.Record(session, reported, model.SourceCompanionPanel)
	require.NoError(t, err)

	// 原样逐条落库，重复活动不去重
	require.Len(t, activities.entries, 3)
	assert.Equal(t, "认到一半走神", activities.entries[1].Note)
	assert.Equal(t, model.SourceCompanionPanel, activities.entries[0].Source)
	assert.Equal(t, session.ID, activities.entries[2].SessionID)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Counts[model.OutcomeCompleted])
	assert.Equal(t, 1, summary.Counts[model.OutcomePartial])
}

func TestRecordEmitsStruggleFlags(t *testing.T) {
	svc, _, events := reportFixture()
	session := scheduledSession(1)

	reported := []ReportedActivity{
		{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted},
		{Index: 1, Name: "新词认读", Outcome: model.OutcomeStruggled, Note: "翘舌音混淆"},
		{Index: 2, Name: "绘本共读", Outcome: model.OutcomeStruggled},
	}

	_, err := svc.Record(session, reported, model.SourceOfflineReport)
	require.NoError(t, err)

	flags := events.struggleFlags()
	require.Len(t, flags, 2)
	assert.Equal(t, session.ChildID, flags[0].ChildID)
	require.NotNil(t, flags[0].SessionID)
	assert.Equal(t, session.ID, *flags[0].SessionID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(flags[0].Payload, &payload))
	assert.Equal(t, "新词认读", payload["activity"])
	assert.Equal(t, "翘舌音混淆", payload["note"])
}

func sessionPayload(elapsed int) *SessionEventPayload {
	return &SessionEventPayload{
		Activities: []ReportedActivity{
			{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted},
		},
		StatusCounts:   map[model.ActivityOutcome]int{model.OutcomeCompleted: 1},
		ElapsedSeconds: elapsed,
	}
}

func TestMergeSessionEventCreatesCanonicalEvent(t *testing.T) {
	svc, _, events := reportFixture()

	event, err := svc.MergeSessionEvent(1, 7, 100, model.SourceCompanionPanel, sessionPayload(2400))
	require.NoError(t, err)

	assert.Equal(t, model.EventSession, event.EventType)
	require.NotNil(t, event.MergeKey)
	assert.Equal(t, model.SessionMergeKey(7), *event.MergeKey)
	require.NotNil(t, event.SubmittedBy)
	assert.Equal(t, uint(100), *event.SubmittedBy)
	assert.Len(t, events.events, 1)
}

func TestMergeSessionEventIsIdempotent(t *testing.T) {
	svc, _, events := reportFixture()

	first, err := svc.MergeSessionEvent(1, 7, 100, model.SourceCompanionPanel, sessionPayload(2400))
	require.NoError(t, err)
	second, err := svc.MergeSessionEvent(1, 7, 100, model.SourceCompanionPanel, sessionPayload(2400))
	require.NoError(t, err)

	// 两次提交仍只有一条课次级事实，第二次盖了合并时间戳
	assert.Len(t, events.events, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.NotNil(t, second.MergedAt)
}

func TestMergeSessionEventMergesIntoBotRecord(t *testing.T) {
	svc, _, events := reportFixture()

	// 机器人流水线先落了转写事实
	sid := uint(7)
	require.NoError(t, events.Create(&model.LearningEvent{
		ChildID:   1,
		SessionID: &sid,
		EventType: model.EventSession,
		Source:    "recording_bot",
		Payload:   json.RawMessage(`{"transcript":"今天我们读了三只小猪","elapsedSeconds":2000}`),
	}))

	merged, err := svc.MergeSessionEvent(1, 7, 100, model.SourceCompanionPanel, sessionPayload(2400))
	require.NoError(t, err)
	assert.Len(t, events.events, 1)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(merged.Payload, &payload))

	// 机器人独有字段保留，伴学字段并入，重叠字段以伴学侧为准
	assert.JSONEq(t, `"今天我们读了三只小猪"`, string(payload["transcript"]))
	assert.Contains(t, payload, "activities")
	assert.JSONEq(t, `2400`, string(payload["elapsedSeconds"]))
	require.NotNil(t, merged.MergedAt)
}

func TestMergeSessionEventRetriesOnDuplicateKey(t *testing.T) {
	svc, _, events := reportFixture()

	// 第一次创建撞唯一键（并发到达），转为查找后合并
	sid := uint(7)
	existing := &model.LearningEvent{
		ChildID:   1,
		SessionID: &sid,
		EventType: model.EventSession,
		Payload:   json.RawMessage(`{"transcript":"并发先到"}`),
	}
	require.NoError(t, events.Create(existing))
	events.createErr = errStore
	events.findMisses = 1

	merged, err := svc.MergeSessionEvent(1, 7, 100, model.SourceCompanionPanel, sessionPayload(2400))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, merged.ID)
	assert.Len(t, events.events, 1)
}
