package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueDraftExpiry schedules the reaper for a fresh draft. If the draft is
// published before the delay elapses the handler finds nothing to do.
func EnqueueDraftExpiry(asynqClient *asynq.Client, payload DraftExpirePayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDraftExpire, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	log.Printf("Draft expiry scheduled: %+v", payload)
	return nil
}
