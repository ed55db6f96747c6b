package provider

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kalambet/docent/internal/task"
)

const asrService = "asr"

// Provider-side numeric task statuses, shared by the transcription and
// synthesis services: 0 waiting, 1 running, 2 succeeded, 3 failed.
const (
	statusWaiting   = 0
	statusRunning   = 1
	statusSucceeded = 2
	statusFailed    = 3
)

func mapStatus(code int64) (task.State, bool) {
	switch code {
	case statusWaiting:
		return task.StatePending, true
	case statusRunning:
		return task.StateRunning, true
	case statusSucceeded:
		return task.StateSucceeded, true
	case statusFailed:
		return task.StateFailed, true
	default:
		return task.StatePending, false
	}
}

type createRecTaskRequest struct {
	EngineModelType string `json:"EngineModelType"`
	ChannelNum      int    `json:"ChannelNum"`
	ResTextFormat   int    `json:"ResTextFormat"`
	SourceType      int    `json:"SourceType"`
	Data            string `json:"Data"`
}

type createRecTaskResponse struct {
	Data struct {
		TaskID uint64 `json:"TaskId"`
	} `json:"Data"`
}

// CreateTranscription submits base64-encoded audio for recognition in the
// given language and returns the provider's task id.
func (c *Client) CreateTranscription(ctx context.Context, audioBase64 string, lang Language) (string, error) {
	req := createRecTaskRequest{
		EngineModelType: lang.engineModel(),
		ChannelNum:      1,
		ResTextFormat:   0,
		SourceType:      1,
		Data:            audioBase64,
	}

	var resp createRecTaskResponse
	if err := c.call(ctx, c.cfg.ASREndpoint, asrService, asrVersion, "CreateRecTask", req, &resp); err != nil {
		return "", err
	}
	if resp.Data.TaskID == 0 {
		return "", fmt.Errorf("CreateRecTask returned no task id")
	}
	return strconv.FormatUint(resp.Data.TaskID, 10), nil
}

type describeTaskStatusRequest struct {
	TaskID uint64 `json:"TaskId"`
}

type describeTaskStatusResponse struct {
	Data struct {
		Status   int64  `json:"Status"`
		Result   string `json:"Result"`
		ErrorMsg string `json:"ErrorMsg"`
	} `json:"Data"`
}

// TranscriptionStatus queries a transcription task. On success the update
// carries the recognized text.
func (c *Client) TranscriptionStatus(ctx context.Context, taskID string) (task.Update[string], error) {
	id, err := strconv.ParseUint(taskID, 10, 64)
	if err != nil {
		return task.Update[string]{}, fmt.Errorf("invalid transcription task id %q: %w", taskID, err)
	}

	var resp describeTaskStatusResponse
	if err := c.call(ctx, c.cfg.ASREndpoint, asrService, asrVersion, "DescribeTaskStatus",
		describeTaskStatusRequest{TaskID: id}, &resp); err != nil {
		return task.Update[string]{}, err
	}

	state, ok := mapStatus(resp.Data.Status)
	if !ok {
		return task.Update[string]{}, fmt.Errorf("unknown transcription task status %d", resp.Data.Status)
	}
	return task.Update[string]{
		State:   state,
		Result:  resp.Data.Result,
		Message: resp.Data.ErrorMsg,
	}, nil
}
