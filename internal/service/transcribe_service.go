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

// ReadingAnalysis 儿童朗读片段的结构化分析结果
type ReadingAnalysis struct {
	Transcript     string   `json:"transcript"`
	Fluency        float64  `json:"fluency"`  // 0-1
	Accuracy       float64  `json:"accuracy"` // 0-1
	WordsPerMinute float64  `json:"wordsPerMinute"`
	StruggledWords []string `json:"struggledWords"`
}

// TranscribeService 转写与朗读分析服务客户端。
// 转写耗时较长，超时放宽到 120 秒。
type TranscribeService struct {
	config config.TranscribeConfig
	client *http.Client
}

func NewTranscribeService(cfg config.TranscribeConfig) *TranscribeService {
	return &TranscribeService{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// Transcribe 把音频文件转成文本
func (s *TranscribeService) Transcribe(ctx context.Context, audioURL string) (string, error) {
	var result struct {
		Text string `json:"text"`
	}
	if err := s.post(ctx, "/v1/transcriptions", audioURL, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// AnalyzeReading 对孩子的朗读片段做朗读质量分析
func (s *TranscribeService) AnalyzeReading(ctx context.Context, audioURL string) (*ReadingAnalysis, error) {
	var result ReadingAnalysis
	if err := s.post(ctx, "/v1/reading-analysis", audioURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *TranscribeService) post(ctx context.Context, path, audioURL string, out interface{}) error {
	reqBody := map[string]string{"audio_url": audioURL}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST",
		s.config.BaseURL+path, bytes.NewBuffer(jsonData))
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

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("transcribe API error (status %d): %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
