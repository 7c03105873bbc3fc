package queue

import (
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/storage"
)

type Queue struct {
	pr repository.PostRepository
	st storage.Storage
}

func NewQueue(pr repository.PostRepository, st storage.Storage) *Queue {
	return &Queue{
		pr: pr,
		st: st,
	}
}

const TaskTypeDraftExpire = "draft:expire"

type DraftExpirePayload struct {
	PostID int64 `json:"post_id"`
}
