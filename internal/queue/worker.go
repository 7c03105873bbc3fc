package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"github.com/beardedvibes/beardedvibes/internal/models"
)

func (j *Queue) HandleDraftExpireTask(ctx context.Context, task *asynq.Task) error {
	var payload DraftExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return j.ExpireDraft(payload.PostID)
}

// ExpireDraft deletes a draft that outlived its TTL, media object included.
// Posts that were published or already removed in the meantime are left
// alone.
func (j *Queue) ExpireDraft(postID int64) error {
	ctx := context.Background()

	post, err := j.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.Status != models.PostStatusDraft {
		return nil
	}

	if err := j.pr.Remove(ctx, post.ID); err != nil {
		return err
	}
	if err := j.st.Delete(ctx, post.FileName); err != nil {
		log.Printf("Error deleting media for expired draft %d: %v", postID, err)
	}
	if post.ThumbnailName != "" {
		if err := j.st.Delete(ctx, post.ThumbnailName); err != nil {
			log.Printf("Error deleting thumbnail for expired draft %d: %v", postID, err)
		}
	}

	log.Printf("Expired draft %d", postID)
	return nil
}
