package provider

import (
	"context"
	"fmt"

	"github.com/kalambet/docent/internal/task"
)

const ttsService = "tts"

type createTtsTaskRequest struct {
	Text            string `json:"Text"`
	Volume          int    `json:"Volume"`
	Speed           int    `json:"Speed"`
	ProjectID       int    `json:"ProjectId"`
	ModelType       int    `json:"ModelType"`
	VoiceType       int    `json:"VoiceType"`
	PrimaryLanguage int    `json:"PrimaryLanguage"`
	SampleRate      int    `json:"SampleRate"`
	Codec           string `json:"Codec"`
}

type createTtsTaskResponse struct {
	Data struct {
		TaskID string `json:"TaskId"`
	} `json:"Data"`
}

// CreateSynthesis submits text for speech synthesis with the voice mapped
// from lang and returns the provider's task id.
func (c *Client) CreateSynthesis(ctx context.Context, text string, lang Language) (string, error) {
	req := createTtsTaskRequest{
		Text:            text,
		Volume:          8,
		Speed:           0,
		ModelType:       1,
		VoiceType:       lang.voiceType(),
		PrimaryLanguage: 1,
		SampleRate:      16000,
		Codec:           "wav",
	}

	var resp createTtsTaskResponse
	if err := c.call(ctx, c.cfg.TTSEndpoint, ttsService, ttsVersion, "CreateTtsTask", req, &resp); err != nil {
		return "", err
	}
	if resp.Data.TaskID == "" {
		return "", fmt.Errorf("CreateTtsTask returned no task id")
	}
	return resp.Data.TaskID, nil
}

type describeTtsTaskStatusRequest struct {
	TaskID string `json:"TaskId"`
}

type describeTtsTaskStatusResponse struct {
	Data struct {
		Status    int64  `json:"Status"`
		ResultURL string `json:"ResultUrl"`
		ErrorMsg  string `json:"ErrorMsg"`
		StatusStr string `json:"StatusStr"`
	} `json:"Data"`
}

// SynthesisStatus queries a synthesis task. On success the update carries
// the URL of the rendered audio.
func (c *Client) SynthesisStatus(ctx context.Context, taskID string) (task.Update[string], error) {
	var resp describeTtsTaskStatusResponse
	if err := c.call(ctx, c.cfg.TTSEndpoint, ttsService, ttsVersion, "DescribeTtsTaskStatus",
		describeTtsTaskStatusRequest{TaskID: taskID}, &resp); err != nil {
		return task.Update[string]{}, err
	}

	state, ok := mapStatus(resp.Data.Status)
	if !ok {
		return task.Update[string]{}, fmt.Errorf("unknown synthesis task status %d", resp.Data.Status)
	}

	message := resp.Data.ErrorMsg
	if message == "" {
		message = resp.Data.StatusStr
	}
	return task.Update[string]{
		State:   state,
		Result:  resp.Data.ResultURL,
		Message: message,
	}, nil
}
