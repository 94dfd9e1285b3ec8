package service

import (
	"math"
	"reading_coach_backend/internal/model"
)

// 贴合度权重：完成 60% + 顺序 20% + 时间 20%
const (
	completionWeight = 0.6
	sequenceWeight   = 0.2
	timeWeight       = 0.2

	// 实际/计划时长比在 [0.75, 1.25] 内视为"按计划"
	timeRatioLow  = 0.75
	timeRatioHigh = 1.25
	timeRatioCap  = 1.5
)

// ReportedActivity 教练上报的单个活动结果（线上伴学面板或线下补报，双路径共用）
type ReportedActivity struct {
	Index          int                   `json:"index"`
	Name           string                `json:"name" binding:"required"`
	Purpose        string                `json:"purpose"`
	Outcome        model.ActivityOutcome `json:"outcome" binding:"required"`
	PlannedMinutes int                   `json:"plannedMinutes"`
	ActualSeconds  int                   `json:"actualSeconds"`
	Note           string                `json:"note"`
}

// ActivityTiming 逐活动的计划/实际用时对照，按活动名匹配
type ActivityTiming struct {
	Name           string  `json:"name"`
	PlannedMinutes float64 `json:"plannedMinutes"`
	ActualMinutes  float64 `json:"actualMinutes"`
}

// ScoreBreakdown 贴合度得分的结构化拆解，随分数一起落在课次上
type ScoreBreakdown struct {
	PlannedCount   int `json:"plannedCount"`
	CompletedCount int `json:"completedCount"`
	PartialCount   int `json:"partialCount"`
	SkippedCount   int `json:"skippedCount"`
	StruggledCount int `json:"struggledCount"`

	SequenceKept bool `json:"sequenceKept"`

	PlannedMinutes  float64 `json:"plannedMinutes"`
	ActualMinutes   float64 `json:"actualMinutes"`
	TimeWithinRange bool    `json:"timeWithinRange"`

	Activities []ActivityTiming `json:"activities"`
}

// ScoreAdherence 纯函数：计划模板 + 上报活动 → [0,1] 贴合度得分与拆解。
// 无模板的课次不调用本函数，分数保持未设置。
func ScoreAdherence(planned []model.TemplateActivity, reported []ReportedActivity) (float64, *ScoreBreakdown) {
	breakdown := &ScoreBreakdown{
		PlannedCount: len(planned),
	}

	doneCount := 0
	doneIndices := make([]int, 0, len(reported))
	for _, act := range reported {
		switch act.Outcome {
		case model.OutcomeCompleted:
			breakdown.CompletedCount++
		case model.OutcomePartial:
			breakdown.PartialCount++
		case model.OutcomeSkipped:
			breakdown.SkippedCount++
		case model.OutcomeStruggled:
			breakdown.StruggledCount++
		}
		if act.Outcome == model.OutcomeCompleted || act.Outcome == model.OutcomePartial {
			doneCount++
			doneIndices = append(doneIndices, act.Index)
		}
	}

	// 完成率
	completion := 1.0
	if len(planned) > 0 {
		completion = math.Min(1.0, float64(doneCount)/float64(len(planned)))
	}

	// 顺序贴合：按上报顺序，已完成活动的模板序号不回跳则满分；0或1个完成活动平凡满足
	breakdown.SequenceKept = true
	for i := 1; i < len(doneIndices); i++ {
		if doneIndices[i] < doneIndices[i-1] {
			breakdown.SequenceKept = false
			break
		}
	}
	sequence := 1.0
	if !breakdown.SequenceKept {
		sequence = 0.5
	}

	// 时间贴合
	var plannedMinutes float64
	for _, act := range planned {
		plannedMinutes += float64(act.DurationMinutes)
	}
	var actualMinutes float64
	for _, act := range reported {
		actualMinutes += float64(act.ActualSeconds) / 60.0
	}
	breakdown.PlannedMinutes = plannedMinutes
	breakdown.ActualMinutes = actualMinutes

	timeScore := 1.0
	breakdown.TimeWithinRange = true
	if plannedMinutes > 0 {
		ratio := actualMinutes / plannedMinutes
		if ratio < timeRatioLow || ratio > timeRatioHigh {
			breakdown.TimeWithinRange = false
			timeScore = math.Min(ratio, timeRatioCap) / timeRatioCap
			if timeScore > 1.0 {
				timeScore = 1.0
			}
		}
	}

	// 逐活动用时对照表，按活动名匹配
	actualByName := make(map[string]float64, len(reported))
	for _, act := range reported {
		actualByName[act.Name] += float64(act.ActualSeconds) / 60.0
	}
	for _, act := range planned {
		breakdown.Activities = append(breakdown.Activities, ActivityTiming{
			Name:           act.Name,
			PlannedMinutes: float64(act.DurationMinutes),
			ActualMinutes:  actualByName[act.Name],
		})
	}

	score := completion*completionWeight + sequence*sequenceWeight + timeScore*timeWeight
	score = math.Round(score*100) / 100

	return score, breakdown
}
