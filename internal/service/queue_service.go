package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	summaryScheduledKey = "coach:summary:scheduled" // 延迟任务 zset，score 为投递时间戳
	summaryReadyKey     = "coach:summary:ready"     // 到期任务列表，外部摘要消费方 BRPOP

	promoteInterval = time.Second
)

// OfflineSummaryBundle 线下课随摘要任务下传的转写/分析数据，摘要生成方不用重新推导
type OfflineSummaryBundle struct {
	Transcript     string                 `json:"transcript,omitempty"`
	Analysis       *ReadingAnalysis       `json:"analysis,omitempty"`
	Confidence     model.ReportConfidence `json:"confidence,omitempty"`
	StruggledWords []string               `json:"struggledWords,omitempty"`
	MasteredWords  []string               `json:"masteredWords,omitempty"`
}

// SummaryJob 家长摘要生成任务描述，消费方在本服务之外
type SummaryJob struct {
	ID          string                `json:"id"`
	SessionID   uint                  `json:"sessionId"`
	ChildID     uint                  `json:"childId"`
	EnqueuedAt  time.Time             `json:"enqueuedAt"`
	Attempts    int                   `json:"attempts"`
	MaxAttempts int                   `json:"maxAttempts"`
	Offline     *OfflineSummaryBundle `json:"offline,omitempty"`
}

// QueueService 基于 Redis 的延迟任务队列（生产侧）。
// 任务先进 scheduled zset，后台循环把到期任务搬到 ready 列表供外部消费。
type QueueService struct {
	rdb  *redis.Client
	cfg  config.QueueConfig
	stop chan struct{}
}

func NewQueueService(rdb *redis.Client, cfg config.QueueConfig) *QueueService {
	return &QueueService{
		rdb:  rdb,
		cfg:  cfg,
		stop: make(chan struct{}),
	}
}

// EnqueueSummary 延迟 delay 后投递摘要任务
func (q *QueueService) EnqueueSummary(ctx context.Context, job *SummaryJob, delay time.Duration) error {
	if job.ID == "" {
		job.ID = model.GenerateUUID()
	}
	job.EnqueuedAt = time.Now()
	if job.MaxAttempts == 0 {
		job.MaxAttempts = q.cfg.MaxAttempts
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}

	deliverAt := float64(time.Now().Add(delay).UnixMilli())
	return q.rdb.ZAdd(ctx, summaryScheduledKey, &redis.Z{
		Score:  deliverAt,
		Member: raw,
	}).Err()
}

// Run 后台搬运循环，App 启动时以 goroutine 运行
func (q *QueueService) Run() {
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.promoteDue()
		case <-q.stop:
			return
		}
	}
}

func (q *QueueService) Stop() {
	close(q.stop)
}

// promoteDue 把到期任务从 scheduled zset 搬到 ready 列表。
// ZRem 返回 0 说明别的实例已经搬走了这条，跳过即可。
func (q *QueueService) promoteDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	jobs, err := q.rdb.ZRangeByScore(ctx, summaryScheduledKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: 100,
	}).Result()
	if err != nil {
		logger.Log.Error("queue.promote_scan_failed", zap.Error(err))
		return
	}

	for _, raw := range jobs {
		removed, err := q.rdb.ZRem(ctx, summaryScheduledKey, raw).Result()
		if err != nil {
			logger.Log.Error("queue.promote_remove_failed", zap.Error(err))
			continue
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, summaryReadyKey, raw).Err(); err != nil {
			logger.Log.Error("queue.promote_push_failed", zap.Error(err))
			// 推回 scheduled，等下一轮重试
			q.rdb.ZAdd(ctx, summaryScheduledKey, &redis.Z{
				Score:  float64(time.Now().UnixMilli()),
				Member: raw,
			})
		}
	}
}

// Requeue 消费失败的任务重新延迟投递，超过最大尝试次数则丢弃并记日志
func (q *QueueService) Requeue(ctx context.Context, job *SummaryJob, delay time.Duration) error {
	job.Attempts++
	if job.Attempts >= job.MaxAttempts {
		logger.Log.Warn("queue.job_dropped",
			zap.String("jobId", job.ID),
			zap.Uint("sessionId", job.SessionID),
			zap.Int("attempts", job.Attempts))
		return nil
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	deliverAt := float64(time.Now().Add(delay).UnixMilli())
	return q.rdb.ZAdd(ctx, summaryScheduledKey, &redis.Z{
		Score:  deliverAt,
		Member: raw,
	}).Err()
}
