package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"time"
)

// NotifyService 消息推送服务客户端（家长/教练的会话式消息）
type NotifyService struct {
	config config.NotifyConfig
	client *http.Client
}

func NewNotifyService(cfg config.NotifyConfig) *NotifyService {
	return &NotifyService{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendParentMessage 给孩子的家长发一条消息
func (s *NotifyService) SendParentMessage(ctx context.Context, child *model.Child, text string) error {
	reqBody := map[string]interface{}{
		"to":      child.ParentPhone,
		"email":   child.ParentEmail,
		"subject": fmt.Sprintf("%s 的课程通知", child.Name),
		"text":    text,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST",
		s.config.BaseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
