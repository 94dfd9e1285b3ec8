package service

import (
	"reading_coach_backend/internal/model"
	"time"
)

// AssignmentService 新预约的教练分配：按最近分配时间轮询，尽力公平。
// 并发预约可能选中同一教练，属于已接受的竞态，靠"用完即盖章"缓解。
type AssignmentService struct {
	Coaches CoachStore
}

func NewAssignmentService(coaches CoachStore) *AssignmentService {
	return &AssignmentService{Coaches: coaches}
}

// PickCoach 选出候选日期可用、最久未被分配的教练。
// 无人可选返回 (nil, nil)，调用方回退到人工分配，不视为错误。
func (s *AssignmentService) PickCoach(date time.Time) (*model.Coach, error) {
	unavailable, err := s.Coaches.OnLeave(date)
	if err != nil {
		return nil, err
	}

	return s.Coaches.NextEligible(unavailable)
}

// StampAssigned 调用方确认使用该教练后显式盖章，驱动下一次轮询
func (s *AssignmentService) StampAssigned(coachID uint) error {
	return s.Coaches.StampAssigned(coachID, time.Now())
}
