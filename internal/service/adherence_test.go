package service

import (
	"testing"

	"reading_coach_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readingPlan() []model.TemplateActivity {
	return []model.TemplateActivity{
		{Index: 0, Name: "热身问答", DurationMinutes: 5},
		{Index: 1, Name: "新词认读", DurationMinutes: 10},
		{Index: 2, Name: "绘本共读", DurationMinutes: 20},
		{Index: 3, Name: "复述总结", DurationMinutes: 10},
	}
}

func TestScoreAdherence(t *testing.T) {
	tests := []struct {
		name     string
		planned  []model.TemplateActivity
		reported []ReportedActivity
		want     float64
	}{
		{
			name:    "all completed on plan",
			planned: readingPlan(),
			reported: []ReportedActivity{
				{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted, ActualSeconds: 300},
				{Index: 1, Name: "新词认读", Outcome: model.OutcomeCompleted, ActualSeconds: 600},
				{Index: 2, Name: "绘本共读", Outcome: model.OutcomeCompleted, ActualSeconds: 1200},
				{Index: 3, Name: "复述总结", Outcome: model.OutcomeCompleted, ActualSeconds: 600},
			},
			want: 1.00,
		},
		{
			name:    "half completed in order",
			planned: readingPlan(),
			reported: []ReportedActivity{
				{Index: 0, Name: "热身问答", Outcome: model.OutcomeSkipped},
				{Index: 1, Name: "新词认读", Outcome: model.OutcomeSkipped},
				{Index: 2, Name: "绘本共读", Outcome: model.OutcomeCompleted, ActualSeconds: 1200},
				{Index: 3, Name: "复述总结", Outcome: model.OutcomeCompleted, ActualSeconds: 840},
			},
			want: 0.70,
		},
		{
			name:    "all completed out of order",
			planned: readingPlan(),
			reported: []ReportedActivity{
				{Index: 2, Name: "绘本共读", Outcome: model.OutcomeCompleted, ActualSeconds: 1200},
				{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted, ActualSeconds: 300},
				{Index: 3, Name: "复述总结", Outcome: model.OutcomeCompleted, ActualSeconds: 600},
				{Index: 1, Name: "新词认读", Outcome: model.OutcomeCompleted, ActualSeconds: 600},
			},
			want: 0.90,
		},
		{
			name:    "rushed to half the planned time",
			planned: readingPlan(),
			reported: []ReportedActivity{
				{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted, ActualSeconds: 150},
				{Index: 1, Name: "新词认读", Outcome: model.OutcomeCompleted, ActualSeconds: 300},
				{Index: 2, Name: "绘本共读", Outcome: model.OutcomeCompleted, ActualSeconds: 600},
				{Index: 3, Name: "复述总结", Outcome: model.OutcomeCompleted, ActualSeconds: 300},
			},
			want: 0.87,
		},
		{
			name:    "nothing done",
			planned: readingPlan(),
			reported: []ReportedActivity{
				{Index: 0, Name: "热身问答", Outcome: model.OutcomeSkipped},
				{Index: 1, Name: "新词认读", Outcome: model.OutcomeSkipped},
				{Index: 2, Name: "绘本共读", Outcome: model.OutcomeSkipped},
				{Index: 3, Name: "复述总结", Outcome: model.OutcomeSkipped},
			},
			want: 0.20,
		},
		{
			name:    "no plan",
			planned: nil,
			reported: []ReportedActivity{
				{Index: 0, Name: "自由共读", Outcome: model.OutcomeCompleted, ActualSeconds: 1800},
			},
			want: 1.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, breakdown := ScoreAdherence(tt.planned, tt.reported)
			assert.InDelta(t, tt.want, score, 0.001)
			require.NotNil(t, breakdown)
			assert.Equal(t, len(tt.planned), breakdown.PlannedCount)
		})
	}
}

func TestScoreAdherenceBreakdown(t *testing.T) {
	reported := []ReportedActivity{
		{Index: 0, Name: "热身问答", Outcome: model.OutcomeCompleted, ActualSeconds: 300},
		{Index: 1, Name: "新词认读", Outcome: model.OutcomeStruggled, ActualSeconds: 600},
		{Index: 2, Name: "绘本共读", Outcome: model.OutcomePartial, ActualSeconds: 1200},
		{Index: 3, Name: "复述总结", Outcome: model.OutcomeSkipped},
	}

	_, breakdown := ScoreAdherence(readingPlan(), reported)

	assert.Equal(t, 4, breakdown.PlannedCount)
	assert.Equal(t, 1, breakdown.CompletedCount)
	assert.Equal(t, 1, breakdown.PartialCount)
	assert.Equal(t, 1, breakdown.SkippedCount)
	assert.Equal(t, 1, breakdown.StruggledCount)
	assert.True(t, breakdown.SequenceKept)
	assert.Equal(t, 45.0, breakdown.PlannedMinutes)
	assert.InDelta(t, 35.0, breakdown.ActualMinutes, 0.001)
	assert.True(t, breakdown.TimeWithinRange)

	require.Len(t, breakdown.Activities, 4)
	assert.Equal(t, "绘本共读", breakdown.Activities[2].Name)
	assert.Equal(t, 20.0, breakdown.Activities[2].PlannedMinutes)
	assert.InDelta(t, 20.0, breakdown.Activities[2].ActualMinutes, 0.001)
}
