package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reading_coach_backend/internal/config"
	"time"
)

// RecorderBotService 视频录制机器人服务客户端，按课次启动/取消
type RecorderBotService struct {
	config config.RecorderConfig
	client *http.Client
}

func NewRecorderBotService(cfg config.RecorderConfig) *RecorderBotService {
	return &RecorderBotService{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Schedule 为线上课预约录制机器人，返回机器人会话ID
func (s *RecorderBotService) Schedule(ctx context.Context, eventID string, startAt time.Time) (string, error) {
	reqBody := map[string]interface{}{
		"event_id": eventID,
		"start_at": startAt.Format(time.RFC3339),
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST",
		s.config.BaseURL+"/v1/bots", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("recorder bot API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		BotID string `json:"bot_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.BotID, nil
}

// Cancel 取消已预约的录制机器人
func (s *RecorderBotService) Cancel(ctx context.Context, botID string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE",
		fmt.Sprintf("%s/v1/bots/%s", s.config.BaseURL, botID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("recorder bot API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
