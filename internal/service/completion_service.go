package service

import (
	"context"
	"encoding/json"
	"errors"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/internal/util"
	"reading_coach_backend/pkg/logger"
	"reading_coach_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// AudioURLResolver 把落库的音频路径换成转写服务可直接拉取的绝对 URL
type AudioURLResolver interface {
	GetURL(ctx context.Context, filename string) (string, error)
}

// CompletionService 完课编排：线上/线下两条提交路径汇聚到同一串下游动作，
// 保证两种模式产出可比的数据。活动记录落库之后的每一步都是独立尽力而为，
// 不回滚不补偿；只要活动已记录，接口即返回成功并注明哪些步骤降级。
type CompletionService struct {
	Sessions  SessionStore
	Coaches   CoachStore
	Templates TemplateStore
	Report    *ReportService

	Transcriber Transcriber
	Queue       SummaryEnqueuer
	Audio       AudioURLResolver
	QueueCfg    config.QueueConfig
}

func NewCompletionService(
	sessions SessionStore,
	coaches CoachStore,
	templates TemplateStore,
	report *ReportService,
	transcriber Transcriber,
	queue SummaryEnqueuer,
	audio AudioURLResolver,
	queueCfg config.QueueConfig,
) *CompletionService {
	return &CompletionService{
		Sessions:    sessions,
		Coaches:     coaches,
		Templates:   templates,
		Report:      report,
		Transcriber: transcriber,
		Queue:       queue,
		Audio:       audio,
		QueueCfg:    queueCfg,
	}
}

type OnlineCompletionReq struct {
	Activities     []ReportedActivity `json:"activities" binding:"required"`
	ElapsedSeconds int                `json:"elapsedSeconds" binding:"required"`
	Notes          string             `json:"notes"`
}

type OfflineCompletionReq struct {
	StartedAt time.Time `json:"startedAt" binding:"required"`
	EndedAt   time.Time `json:"endedAt" binding:"required"`

	Activities []ReportedActivity `json:"activities" binding:"required"`
	// 模板之外临场加的活动，与主列表合并记录
	AdditionalActivities []ReportedActivity `json:"additionalActivities"`

	StruggledWords []string `json:"struggledWords"`
	MasteredWords  []string `json:"masteredWords"`
	Notes          string   `json:"notes"`
}

type CompletionResult struct {
	SessionID  uint                   `json:"sessionId"`
	Score      *float64               `json:"score,omitempty"`
	Breakdown  *ScoreBreakdown        `json:"breakdown,omitempty"`
	Summary    *ActivitySummary       `json:"summary"`
	Confidence model.ReportConfidence `json:"confidence,omitempty"`
	// 降级的后续步骤，活动记录本身已成功
	Degraded []string `json:"degraded,omitempty"`
}

// offlineExtras 线下路径独有的数据，随课次事实与摘要任务一起下传
type offlineExtras struct {
	Transcript     string
	Analysis       *ReadingAnalysis
	Confidence     model.ReportConfidence
	StruggledWords []string
	MasteredWords  []string
	Degraded       []string
}

// CompleteOnline 线上课完课：伴学面板提交活动列表与前端计时
func (s *CompletionService) CompleteOnline(ctx context.Context, actor Actor, sessionID uint, req OnlineCompletionReq) (*CompletionResult, error) {
	session, err := s.loadOpenSession(actor, sessionID)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, session, actor, req.Activities, req.ElapsedSeconds, req.Notes,
		model.SourceCompanionPanel, nil)
}

// CompleteOffline 线下课补报：要求语音留言已上传，转写/朗读分析尽力而为
func (s *CompletionService) CompleteOffline(ctx context.Context, actor Actor, sessionID uint, req OfflineCompletionReq) (*CompletionResult, error) {
	if !req.EndedAt.After(req.StartedAt) {
		return nil, errors.New("endedAt must be after startedAt")
	}

	session, err := s.loadOpenSession(actor, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Mode != model.ModeOffline ||
		(session.OfflineStatus != model.OfflineApproved && session.OfflineStatus != model.OfflineAutoApproved) {
		return nil, util.ErrOfflineNotApproved
	}
	if session.VoiceNotePath == "" {
		return nil, util.ErrVoiceNoteRequired
	}

	extras := &offlineExtras{
		StruggledWords: req.StruggledWords,
		MasteredWords:  req.MasteredWords,
		Confidence:     model.ConfidenceCoachReported,
	}
	if session.ReadingClipPath != "" {
		extras.Confidence = model.ConfidenceCoachAudio
	}

	// 转写与朗读分析失败不阻塞报告，空结果继续
	var transcript string
	noteURL, err := s.Audio.GetURL(ctx, session.VoiceNotePath)
	if err == nil {
		transcript, err = s.Transcriber.Transcribe(ctx, noteURL)
	}
	if err != nil {
		monitoring.BestEffortFailures.WithLabelValues("transcription").Inc()
		logger.Log.Error("completion.transcription_failed", zap.Error(err), zap.Uint("sessionId", session.ID))
		extras.Degraded = append(extras.Degraded, "transcription")
	}
	extras.Transcript = transcript

	if session.ReadingClipPath != "" {
		var analysis *ReadingAnalysis
		clipURL, err := s.Audio.GetURL(ctx, session.ReadingClipPath)
		if err == nil {
			analysis, err = s.Transcriber.AnalyzeReading(ctx, clipURL)
		}
		if err != nil {
			monitoring.BestEffortFailures.WithLabelValues("reading_analysis").Inc()
			logger.Log.Error("completion.reading_analysis_failed", zap.Error(err), zap.Uint("sessionId", session.ID))
			extras.Degraded = append(extras.Degraded, "reading_analysis")
		}
		extras.Analysis = analysis
	}

	activities := append([]ReportedActivity{}, req.Activities...)
	activities = append(activities, req.AdditionalActivities...)
	elapsed := int(req.EndedAt.Sub(req.StartedAt).Seconds())

	return s.finish(ctx, session, actor, activities, elapsed, req.Notes,
		model.SourceOfflineReport, extras)
}

// loadOpenSession 完课前置校验：存在、归属提交教练（或管理员）、仍处于待上课状态
func (s *CompletionService) loadOpenSession(actor Actor, sessionID uint) (*model.Session, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	if !actor.ownsCoach(session.CoachID) {
		return nil, util.ErrPermissionDenied
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionAlreadyCompleted
	}
	if session.Status != model.SessionScheduled {
		return nil, util.ErrSessionNotScheduled
	}
	return session, nil
}

// finish 两条路径共用的完课主流程：记录 → 合并 → 评分 → 课次更新 → 连击 → 摘要任务。
// 活动记录是唯一致命步骤，其后各步失败只进 degraded 列表。
func (s *CompletionService) finish(
	ctx context.Context,
	session *model.Session,
	actor Actor,
	activities []ReportedActivity,
	elapsedSeconds int,
	notes string,
	source model.ActivitySource,
	extras *offlineExtras,
) (*CompletionResult, error) {
	summary, err := s.Report.Record(session, activities, source)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{
		SessionID: session.ID,
		Summary:   summary,
	}
	if extras != nil {
		result.Confidence = extras.Confidence
		result.Degraded = append(result.Degraded, extras.Degraded...)
	}

	// 规范课次事实合并
	payload := &SessionEventPayload{
		Activities:     activities,
		StatusCounts:   summary.Counts,
		Notes:          notes,
		ElapsedSeconds: elapsedSeconds,
	}
	if extras != nil {
		payload.Transcript = extras.Transcript
		payload.ReadingAnalysis = extras.Analysis
		payload.Confidence = extras.Confidence
		payload.StruggledWords = extras.StruggledWords
		payload.MasteredWords = extras.MasteredWords
	}
	if _, err := s.Report.MergeSessionEvent(session.ChildID, session.ID, actor.AccountID, source, payload); err != nil {
		monitoring.BestEffortFailures.WithLabelValues("event_merge").Inc()
		logger.Log.Error("completion.event_merge_failed", zap.Error(err), zap.Uint("sessionId", session.ID))
		result.Degraded = append(result.Degraded, "event_merge")
	}

	// 评分直接读上报活动，不依赖合并结果；无模板则不评分，属正常终态
	if session.TemplateID != nil {
		planned, err := s.Templates.Activities(*session.TemplateID)
		if err != nil {
			monitoring.BestEffortFailures.WithLabelValues("scoring").Inc()
			logger.Log.Error("completion.template_load_failed", zap.Error(err), zap.Uint("sessionId", session.ID))
			result.Degraded = append(result.Degraded, "scoring")
		} else {
			score, breakdown := ScoreAdherence(planned, activities)
			raw, _ := json.Marshal(breakdown)
			session.AdherenceScore = &score
			session.ScoreBreakdown = raw
			result.Score = &score
			result.Breakdown = breakdown
		}
	}

	now := time.Now()
	session.Status = model.SessionCompleted
	session.CompletedAt = &now
	session.ElapsedSeconds = elapsedSeconds
	if notes != "" {
		session.Notes = notes
	}
	if extras != nil {
		session.Confidence = extras.Confidence
		session.TranscriptAvailable = extras.Transcript != ""
		if session.ReportDeadline != nil && now.After(*session.ReportDeadline) {
			session.ReportLate = true
		}
	}
	if err := s.Sessions.Update(session); err != nil {
		monitoring.BestEffortFailures.WithLabelValues("session_update").Inc()
		logger.Log.Error("completion.session_update_failed", zap.Error(err), zap.Uint("sessionId", session.ID))
		result.Degraded = append(result.Degraded, "session_update")
	} else {
		monitoring.SessionsCompleted.WithLabelValues(string(session.Mode)).Inc()
	}

	// 教练连击计数，允许丢失
	if session.CoachID != nil {
		if err := s.Coaches.IncrementStreak(*session.CoachID); err != nil {
			monitoring.BestEffortFailures.WithLabelValues("coach_streak").Inc()
			logger.Log.Error("completion.streak_increment_failed", zap.Error(err), zap.Uint("coachId", *session.CoachID))
			result.Degraded = append(result.Degraded, "coach_streak")
		}
	}

	// 摘要任务延迟投递，留时间让刚写入的事实可读；线下附带转写/分析包，
	// 摘要生成方不用重新推导
	job := &SummaryJob{
		SessionID: session.ID,
		ChildID:   session.ChildID,
	}
	if extras != nil {
		job.Offline = &OfflineSummaryBundle{
			Transcript:     extras.Transcript,
			Analysis:       extras.Analysis,
			Confidence:     extras.Confidence,
			StruggledWords: extras.StruggledWords,
			MasteredWords:  extras.MasteredWords,
		}
	}
	delay := time.Duration(s.QueueCfg.SummaryDelaySeconds) * time.Second
	if err := s.Queue.EnqueueSummary(ctx, job, delay); err != nil {
		monitoring.BestEffortFailures.WithLabelValues("summary_enqueue").Inc()
		logger.Log.Error("completion.summary_enqueue_failed", zap.Error(err), zap.Uint("sessionId", session.ID))
		result.Degraded = append(result.Degraded, "summary_enqueue")
	}

	return result, nil
}
