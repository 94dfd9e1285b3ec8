package service

import (
	"encoding/json"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// ReportService 活动记录落库 + 课次级事实合并。
// 活动行只增不改；课次级事实（伴学记录 / 机器人转写）双来源合并为一条。
type ReportService struct {
	Activities ActivityLogStore
	Events     LearningEventStore
}

func NewReportService(activities ActivityLogStore, events LearningEventStore) *ReportService {
	return &ReportService{Activities: activities, Events: events}
}

// ActivitySummary 按结果分类的聚合计数
type ActivitySummary struct {
	Total  int                           `json:"total"`
	Counts map[model.ActivityOutcome]int `json:"counts"`
}

// Record 逐条原样保存上报活动并聚合计数；每个"挣扎"活动另发一条干预标记事实。
// 活动行写入失败是致命错误；挣扎标记是派生事实，失败只记日志。
func (s *ReportService) Record(session *model.Session, reported []ReportedActivity, source model.ActivitySource) (*ActivitySummary, error) {
	entries := make([]model.ActivityLogEntry, 0, len(reported))
	for _, act := range reported {
		entries = append(entries, model.ActivityLogEntry{
			SessionID:      session.ID,
			Index:          act.Index,
			Name:           act.Name,
			Purpose:        act.Purpose,
			Outcome:        act.Outcome,
			PlannedMinutes: act.PlannedMinutes,
			ActualSeconds:  act.ActualSeconds,
			Note:           act.Note,
			Source:         source,
		})
	}
	if err := s.Activities.BulkCreate(entries); err != nil {
		return nil, err
	}

	summary := &ActivitySummary{
		Total:  len(reported),
		Counts: make(map[model.ActivityOutcome]int),
	}
	for _, act := range reported {
		summary.Counts[act.Outcome]++
	}

	// 挣扎标记：一次活动一条，下游干预看板直接消费，不再重算
	sessionID := session.ID
	for _, act := range reported {
		if act.Outcome != model.OutcomeStruggled {
			continue
		}
		payload, _ := json.Marshal(map[string]string{
			"activity": act.Name,
			"note":     act.Note,
		})
		flag := &model.LearningEvent{
			ChildID:   session.ChildID,
			SessionID: &sessionID,
			EventType: model.EventStruggleFlag,
			Source:    string(source),
			Payload:   payload,
		}
		if err := s.Events.Create(flag); err != nil {
			logger.Log.Error("report.struggle_flag_failed",
				zap.Error(err), zap.Uint("sessionId", sessionID), zap.String("activity", act.Name))
		}
	}

	return summary, nil
}

// SessionEventPayload 伴学侧提交的课次事实载荷
type SessionEventPayload struct {
	Activities     []ReportedActivity            `json:"activities"`
	StatusCounts   map[model.ActivityOutcome]int `json:"statusCounts"`
	Notes          string                        `json:"notes,omitempty"`
	ElapsedSeconds int                           `json:"elapsedSeconds"`

	// 线下报告附带的转写/分析数据
	Transcript      string                 `json:"transcript,omitempty"`
	ReadingAnalysis *ReadingAnalysis       `json:"readingAnalysis,omitempty"`
	Confidence      model.ReportConfidence `json:"confidence,omitempty"`
	StruggledWords  []string               `json:"struggledWords,omitempty"`
	MasteredWords   []string               `json:"masteredWords,omitempty"`
}

// MergeSessionEvent 写入规范课次事实。机器人流水线可能已抢先创建同一课次的事实，
// 存在则把伴学数据合并进既有载荷并盖合并时间戳，不存在则新建。
// 合并键唯一索引保证并发到达时也只留一条：创建撞唯一键就转为合并，两个方向可交换。
func (s *ReportService) MergeSessionEvent(childID, sessionID, submittedBy uint, source model.ActivitySource, payload *SessionEventPayload) (*model.LearningEvent, error) {
	existing, err := s.Events.FindSessionEvent(sessionID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return s.mergeInto(existing, submittedBy, payload)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	key := model.SessionMergeKey(sessionID)
	sid := sessionID
	event := &model.LearningEvent{
		ChildID:     childID,
		SessionID:   &sid,
		EventType:   model.EventSession,
		Source:      string(source),
		Payload:     raw,
		MergeKey:    &key,
		SubmittedBy: &submittedBy,
	}
	if err := s.Events.Create(event); err != nil {
		// 机器人流水线恰好先落了同一课次的事实：改走合并
		existing, findErr := s.Events.FindSessionEvent(sessionID)
		if findErr != nil || existing == nil {
			return nil, err
		}
		return s.mergeInto(existing, submittedBy, payload)
	}
	return event, nil
}

// mergeInto 伴学字段覆盖写入既有载荷，机器人侧的字段保持不动
func (s *ReportService) mergeInto(existing *model.LearningEvent, submittedBy uint, payload *SessionEventPayload) (*model.LearningEvent, error) {
	merged := make(map[string]json.RawMessage)
	if len(existing.Payload) > 0 {
		if err := json.Unmarshal(existing.Payload, &merged); err != nil {
			logger.Log.Warn("report.merge_payload_unreadable",
				zap.Error(err), zap.Uint("eventId", existing.ID))
			merged = make(map[string]json.RawMessage)
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return nil, err
	}
	for k, v := range incoming {
		merged[k] = v
	}

	mergedRaw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	existing.Payload = mergedRaw
	existing.MergedAt = &now
	existing.SubmittedBy = &submittedBy
	if err := s.Events.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}
