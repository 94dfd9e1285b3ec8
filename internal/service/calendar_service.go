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

// CalendarService 外部日历服务客户端（预约事件与视频链接由其托管）
type CalendarService struct {
	config config.CalendarConfig
	client *http.Client
}

func NewCalendarService(cfg config.CalendarConfig) *CalendarService {
	return &CalendarService{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// MarkOffline 更新日历事件：移除视频链接，展示线下地点
func (s *CalendarService) MarkOffline(ctx context.Context, eventID, location string) error {
	reqBody := map[string]interface{}{
		"video_link": nil,
		"location":   location,
		"note":       "本节课已转为线下进行",
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "PATCH",
		fmt.Sprintf("%s/v1/events/%s", s.config.BaseURL, eventID), bytes.NewBuffer(jsonData))
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
		return fmt.Errorf("calendar API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
