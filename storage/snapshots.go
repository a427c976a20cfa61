package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"board-relay/domain"
)

// Snapshots keeps a per-user JSON copy of the task list in redis and
// announces changes on a pub/sub channel. This is the boundary's
// change-subscription mechanism; nothing in the relay depends on it.
type Snapshots struct {
	redis   *redis.Client
	channel string
}

// NewSnapshots creates a snapshot store publishing on the given channel.
func NewSnapshots(client *redis.Client, channel string) *Snapshots {
	if client == nil {
		panic("storage.NewSnapshots: redis client is nil")
	}
	return &Snapshots{redis: client, channel: channel}
}

// changeEvent is the payload published after every mutation.
type changeEvent struct {
	UserID string `json:"userId"`
}

func tasksKey(userID string) string {
	return "tasks:" + userID
}

// SaveTasks stores the user's full task list.
func (s *Snapshots) SaveTasks(ctx context.Context, userID string, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, tasksKey(userID), data, 0).Err()
}

// LoadTasks returns the cached list. The second return is false on a
// miss; a corrupt value is evicted and reported as a miss.
func (s *Snapshots) LoadTasks(ctx context.Context, userID string) ([]domain.Task, bool, error) {
	data, err := s.redis.Get(ctx, tasksKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = s.redis.Del(ctx, tasksKey(userID)).Err()
		return nil, false, nil
	}
	return tasks, true, nil
}

// DeleteTasks drops the user's snapshot.
func (s *Snapshots) DeleteTasks(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, tasksKey(userID)).Err()
}

// PublishChange announces that the user's task list changed.
func (s *Snapshots) PublishChange(ctx context.Context, userID string) error {
	data, err := json.Marshal(changeEvent{UserID: userID})
	if err != nil {
		return err
	}
	return s.redis.Publish(ctx, s.channel, data).Err()
}

// SubscribeChanges invokes handler with the affected userId for every
// published change until ctx is done, reconnecting if the pub/sub
// channel closes.
func (s *Snapshots) SubscribeChanges(ctx context.Context, logger *log.Logger, handler func(userID string)) {
	for {
		sub := s.redis.Subscribe(ctx, s.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev changeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Warnf("unable to parse change event: %v", err)
					continue
				}
				handler(ev.UserID)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
