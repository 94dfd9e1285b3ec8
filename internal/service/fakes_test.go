package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// 内存版窄接口实现，测试不依赖数据库与外部服务

type fakeSessions struct {
	mu           sync.Mutex
	byID         map[uint]*model.Session
	offlineCount int64
	nextNumber   int
	nextID       uint
	updateErr    error
	updates      int
}

func newFakeSessions(sessions ...*model.Session) *fakeSessions {
	f := &fakeSessions{byID: make(map[uint]*model.Session), nextNumber: 1}
	for _, s := range sessions {
		f.byID[s.ID] = s
		if s.ID > f.nextID {
			f.nextID = s.ID
		}
	}
	return f
}

func (f *fakeSessions) Create(session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	session.ID = f.nextID
	f.byID[session.ID] = session
	return nil
}

func (f *fakeSessions) FindByID(id uint) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, errSessionMissing
	}
	return s, nil
}

func (f *fakeSessions) Update(session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	f.byID[session.ID] = session
	return nil
}

func (f *fakeSessions) OfflineCountByEnrollment(enrollmentID uint) (int64, error) {
	return f.offlineCount, nil
}

func (f *fakeSessions) NextSessionNumber(enrollmentID uint) (int, error) {
	return f.nextNumber, nil
}

var errSessionMissing = errString("session missing")
var errStore = errString("store unavailable")

type errString string

func (e errString) Error() string { return string(e) }

type fakeCoaches struct {
	mu           sync.Mutex
	byID         map[uint]*model.Coach
	onLeave      []uint
	onLeaveErr   error
	next         *model.Coach
	nextErr      error
	gotExclude   []uint
	stamped      []uint
	streaks      map[uint]int
	streakErr    error
	qualified    int64
	qualifiedErr error
}

func newFakeCoaches() *fakeCoaches {
	return &fakeCoaches{byID: make(map[uint]*model.Coach), streaks: make(map[uint]int)}
}

func (f *fakeCoaches) FindByID(id uint) (*model.Coach, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, errStore
	}
	return c, nil
}

func (f *fakeCoaches) OnLeave(date time.Time) ([]uint, error) {
	return f.onLeave, f.onLeaveErr
}

func (f *fakeCoaches) NextEligible(exclude []uint) (*model.Coach, error) {
	f.gotExclude = exclude
	return f.next, f.nextErr
}

func (f *fakeCoaches) StampAssigned(coachID uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stamped = append(f.stamped, coachID)
	return nil
}

func (f *fakeCoaches) IncrementStreak(coachID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streakErr != nil {
		return f.streakErr
	}
	f.streaks[coachID]++
	return nil
}

func (f *fakeCoaches) QualifiedOnlineSessionCount(coachID uint, minScore float64) (int64, error) {
	return f.qualified, f.qualifiedErr
}

type fakeEnrollments struct {
	byID map[uint]*model.Enrollment
}

func (f *fakeEnrollments) FindByID(id uint) (*model.Enrollment, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, errStore
	}
	return e, nil
}

func (f *fakeEnrollments) ActiveForChild(childID uint) (*model.Enrollment, error) {
	for _, e := range f.byID {
		if e.ChildID == childID && e.Status == model.EnrollmentActive {
			return e, nil
		}
	}
	return nil, errStore
}

type fakeChildren struct {
	byID    map[uint]*model.Child
	byEmail map[string]*model.Child
}

func (f *fakeChildren) FindByID(id uint) (*model.Child, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, errStore
	}
	return c, nil
}

func (f *fakeChildren) FindByParentEmail(email string) (*model.Child, error) {
	c, ok := f.byEmail[email]
	if !ok {
		return nil, errStore
	}
	return c, nil
}

type fakeTemplates struct {
	activities []model.TemplateActivity
	actErr     error
	tpl        *model.SessionTemplate
}

func (f *fakeTemplates) Activities(templateID uint) ([]model.TemplateActivity, error) {
	return f.activities, f.actErr
}

func (f *fakeTemplates) DefaultTemplate() (*model.SessionTemplate, error) {
	return f.tpl, nil
}

type fakeActivities struct {
	entries []model.ActivityLogEntry
	err     error
}

func (f *fakeActivities) BulkCreate(entries []model.ActivityLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entries...)
	return nil
}

type fakeEvents struct {
	events []*model.LearningEvent
	nextID uint
	// 一次性创建错误，模拟并发撞唯一键
	createErr error
	// 前 N 次课次级事实查找返回未命中，模拟并发窗口
	findMisses int
}

func (f *fakeEvents) Create(event *model.LearningEvent) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	f.nextID++
	event.ID = f.nextID
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) Update(event *model.LearningEvent) error {
	for i, e := range f.events {
		if e.ID == event.ID {
			f.events[i] = event
			return nil
		}
	}
	return errStore
}

func (f *fakeEvents) FindSessionEvent(sessionID uint) (*model.LearningEvent, error) {
	if f.findMisses > 0 {
		f.findMisses--
		return nil, nil
	}
	for _, e := range f.events {
		if e.EventType == model.EventSession && e.SessionID != nil && *e.SessionID == sessionID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEvents) struggleFlags() []*model.LearningEvent {
	var flags []*model.LearningEvent
	for _, e := range f.events {
		if e.EventType == model.EventStruggleFlag {
			flags = append(flags, e)
		}
	}
	return flags
}

type fakeCalendar struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCalendar) MarkOffline(ctx context.Context, eventID, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, eventID)
	return f.err
}

type fakeRecorder struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
	botID     string
	err       error
}

func (f *fakeRecorder) Schedule(ctx context.Context, eventID string, startAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, eventID)
	return f.botID, f.err
}

func (f *fakeRecorder) Cancel(ctx context.Context, botID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, botID)
	return f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) SendParentMessage(ctx context.Context, child *model.Child, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

type fakeTranscriber struct {
	transcript    string
	transcribeErr error
	analysis      *ReadingAnalysis
	analyzeErr    error
	urls          []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	f.urls = append(f.urls, audioURL)
	return f.transcript, f.transcribeErr
}

func (f *fakeTranscriber) AnalyzeReading(ctx context.Context, audioURL string) (*ReadingAnalysis, error) {
	f.urls = append(f.urls, audioURL)
	return f.analysis, f.analyzeErr
}

type fakeQueue struct {
	jobs   []*SummaryJob
	delays []time.Duration
	err    error
}

func (f *fakeQueue) EnqueueSummary(ctx context.Context, job *SummaryJob, delay time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	f.delays = append(f.delays, delay)
	return nil
}

type fakeResolver struct {
	err error
}

func (f fakeResolver) GetURL(ctx context.Context, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + filename, nil
}

func defaultCoaching() config.CoachingConfig {
	return config.CoachingConfig{
		QualifyMinSessions:  3,
		QualifyMinScore:     70,
		OfflineMaxPercent:   25,
		ReportDeadlineHours: 4,
	}
}
