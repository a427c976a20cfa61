package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"board-relay/domain"
)

const hookTimeout = 5 * time.Second

// SnapshotStore mirrors per-user task lists into a read cache and
// announces changes. Implementations are best-effort; the relay logs
// failures and moves on.
type SnapshotStore interface {
	SaveTasks(ctx context.Context, userID string, tasks []domain.Task) error
	PublishChange(ctx context.Context, userID string) error
}

// TaskMirror replicates individual mutations into durable storage. Like
// SnapshotStore it sits outside the broadcast path.
type TaskMirror interface {
	UpsertTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// Relay owns the task store and the connection registry. A single mutex
// serializes command handling: every command runs to completion,
// including its broadcast, before the next one touches the store.
type Relay struct {
	mu       sync.Mutex
	store    *Store
	registry *Registry

	snapshots SnapshotStore
	mirror    TaskMirror
	log       *log.Logger
}

// New creates a relay. snapshots and mirror may be nil when no redis or
// table storage is configured.
func New(logger *log.Logger, snapshots SnapshotStore, mirror TaskMirror) *Relay {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Relay{
		store:     NewStore(),
		registry:  NewRegistry(),
		snapshots: snapshots,
		mirror:    mirror,
		log:       logger,
	}
}

// Bind registers the client under userID and pushes the user's current
// task list to that client alone, so a fresh tab catches up immediately.
func (r *Relay) Bind(c *Client, userID string) {
	r.mu.Lock()
	r.registry.Bind(c, userID)
	frame, err := domain.EncodeSync(r.store.ForUser(userID))
	if err == nil {
		c.push(frame)
	}
	r.mu.Unlock()
	if err != nil {
		r.log.WithField("user", userID).Errorf("encode sync: %v", err)
		return
	}
	r.log.WithFields(log.Fields{
		"user":        userID,
		"connections": r.registry.Connections(userID),
	}).Info("user registered")
}

// Release drops the client from the registry. Safe to call more than
// once; called on every disconnect.
func (r *Relay) Release(c *Client) {
	r.registry.Release(c)
}

// Tasks returns the current task list for a user. Used by the REST
// snapshot endpoint.
func (r *Relay) Tasks(userID string) []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.ForUser(userID)
}

// Dispatch applies one decoded command on behalf of the client.
// Registration binds the identity; every task command from an unbound
// client is dropped with a warning and no state change.
func (r *Relay) Dispatch(c *Client, cmd domain.Command) {
	if cmd.Type == domain.RegisterUser {
		if cmd.UserID == "" {
			r.log.Warn("registration without user id")
			return
		}
		r.Bind(c, cmd.UserID)
		return
	}

	userID, ok := r.registry.UserOf(c)
	if !ok {
		r.log.WithField("command", cmd.Type.String()).Warn("command received without user registration")
		return
	}

	switch cmd.Type {
	case domain.CreateTask:
		r.create(userID, cmd.Draft)
	case domain.UpdateTask:
		r.update(userID, cmd.ID, cmd.Patch)
	case domain.MoveTask:
		r.move(userID, cmd.ID, cmd.Column)
	case domain.DeleteTask:
		r.delete(userID, cmd.ID)
	default:
		r.log.WithField("command", cmd.Type.String()).Warn("unhandled command")
	}
}

func (r *Relay) create(userID string, draft domain.Draft) {
	task := domain.Task{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        draft.Title,
		Description:  draft.Description,
		Priority:     draft.Priority,
		Category:     draft.Category,
		Column:       draft.Column,
		Attachments:  draft.Attachments,
		Archived:     draft.Archived,
		IsFavorite:   draft.IsFavorite,
		DueDate:      draft.DueDate,
		TimeEstimate: draft.TimeEstimate,
		Tags:         draft.Tags,
		CreatedAt:    draft.CreatedAt,
	}
	if task.Column == "" {
		task.Column = domain.ColumnToDo
	}
	if task.Attachments == nil {
		task.Attachments = []domain.Attachment{}
	}
	if task.CreatedAt == "" {
		task.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	r.mu.Lock()
	r.store.Insert(task)
	tasks := r.broadcastLocked(userID)
	r.mu.Unlock()

	r.log.WithFields(log.Fields{"user": userID, "task": task.ID}).Debug("task created")
	r.afterMutation(userID, tasks, func(ctx context.Context) error {
		if r.mirror == nil {
			return nil
		}
		return r.mirror.UpsertTask(ctx, task)
	})
}

// update shallow-merges the patch over the target. It intentionally does
// not check ownership: move and delete do, update never has. The
// mismatch is kept, not fixed; a cross-owner update is logged so it can
// be spotted in the field. The rebroadcast still goes to the sender's
// connections, as the original relay did.
func (r *Relay) update(userID, id string, patch domain.Patch) {
	r.mu.Lock()
	task, found := r.store.Get(id)
	if !found {
		r.mu.Unlock()
		r.log.WithFields(log.Fields{"user": userID, "task": id}).Debug("update for missing task")
		return
	}
	if task.UserID != userID {
		r.log.WithFields(log.Fields{"user": userID, "task": id, "owner": task.UserID}).Warn("update crosses task ownership")
	}
	task.Apply(patch)
	updated := task.Clone()
	tasks := r.broadcastLocked(userID)
	r.mu.Unlock()

	r.log.WithFields(log.Fields{"user": userID, "task": id}).Debug("task updated")
	r.afterMutation(userID, tasks, func(ctx context.Context) error {
		if r.mirror == nil {
			return nil
		}
		return r.mirror.UpsertTask(ctx, updated)
	})
}

func (r *Relay) move(userID, id, column string) {
	r.mu.Lock()
	task, found := r.store.Get(id)
	if !found || task.UserID != userID {
		r.mu.Unlock()
		r.log.WithFields(log.Fields{"user": userID, "task": id}).Debug("move ignored")
		return
	}
	task.Column = column
	moved := task.Clone()
	tasks := r.broadcastLocked(userID)
	r.mu.Unlock()

	r.log.WithFields(log.Fields{"user": userID, "task": id, "column": column}).Debug("task moved")
	r.afterMutation(userID, tasks, func(ctx context.Context) error {
		if r.mirror == nil {
			return nil
		}
		return r.mirror.UpsertTask(ctx, moved)
	})
}

func (r *Relay) delete(userID, id string) {
	r.mu.Lock()
	task, found := r.store.Get(id)
	if !found || task.UserID != userID {
		r.mu.Unlock()
		r.log.WithFields(log.Fields{"user": userID, "task": id}).Debug("delete ignored")
		return
	}
	r.store.Delete(id)
	tasks := r.broadcastLocked(userID)
	r.mu.Unlock()

	r.log.WithFields(log.Fields{"user": userID, "task": id}).Debug("task deleted")
	r.afterMutation(userID, tasks, func(ctx context.Context) error {
		if r.mirror == nil {
			return nil
		}
		return r.mirror.DeleteTask(ctx, userID, id)
	})
}

// broadcastLocked recomputes the user's full list and pushes it to every
// live connection of that user. Always the complete list, never a delta.
// Caller holds r.mu.
func (r *Relay) broadcastLocked(userID string) []domain.Task {
	tasks := r.store.ForUser(userID)
	frame, err := domain.EncodeSync(tasks)
	if err != nil {
		r.log.WithField("user", userID).Errorf("encode sync: %v", err)
		return tasks
	}
	r.registry.Broadcast(userID, frame)
	return tasks
}

// afterMutation runs the persistence hooks outside the store lock.
// Failures never affect relay state or the broadcast already sent.
func (r *Relay) afterMutation(userID string, tasks []domain.Task, mirrorOp func(context.Context) error) {
	if r.snapshots == nil && r.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if r.snapshots != nil {
		if err := r.snapshots.SaveTasks(ctx, userID, tasks); err != nil {
			r.log.WithField("user", userID).Warnf("snapshot save: %v", err)
		}
		if err := r.snapshots.PublishChange(ctx, userID); err != nil {
			r.log.WithField("user", userID).Warnf("publish change: %v", err)
		}
	}
	if err := mirrorOp(ctx); err != nil {
		r.log.WithField("user", userID).Warnf("mirror write: %v", err)
	}
}
