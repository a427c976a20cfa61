// Package client implements a board session: a connection to the relay,
// a local mirror of the last-received task list, and read-time view
// projections. The mirror is never mutated locally; every change goes
// through a command and comes back as a full sync.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"board-relay/domain"
)

// Session is one live connection to the relay, registered under a user
// identity.
type Session struct {
	ws     *websocket.Conn
	userID string
	log    *log.Logger

	writeMu sync.Mutex

	mu    sync.RWMutex
	tasks []domain.Task

	updates chan struct{}
	done    chan struct{}
}

// Dial connects to the relay at url, registers userID and starts
// mirroring sync pushes. Close the session to stop.
func Dial(ctx context.Context, url, userID string, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	s := &Session{
		ws:      ws,
		userID:  userID,
		log:     logger,
		tasks:   []domain.Task{},
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	if err := s.emit(domain.EventRegisterUser, userID); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// UserID returns the identity this session registered under.
func (s *Session) UserID() string { return s.userID }

// Tasks returns a copy of the current mirror.
func (s *Session) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	for i := range s.tasks {
		out[i] = s.tasks[i].Clone()
	}
	return out
}

// Updates signals after every applied sync push. The channel is
// coalescing: a slow receiver sees at least one signal per burst.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// Done closes when the connection ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close tears down the connection.
func (s *Session) Close() error {
	s.writeMu.Lock()
	_ = s.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	return s.ws.Close()
}

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			s.log.Debugf("session read: %v", err)
			return
		}
		var env domain.Envelope
		if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
			s.log.Warnf("malformed frame: %v", err)
			continue
		}
		if env.Event != domain.EventSyncTasks {
			s.log.Debugf("ignoring event %q", env.Event)
			continue
		}
		var tasks []domain.Task
		if err := json.Unmarshal(env.Data, &tasks); err != nil {
			s.log.Warnf("malformed sync payload: %v", err)
			continue
		}
		// the server's list is ground truth; replace wholesale
		s.mu.Lock()
		s.tasks = tasks
		s.mu.Unlock()
		select {
		case s.updates <- struct{}{}:
		default:
		}
	}
}

func (s *Session) emit(event string, data any) error {
	frame, err := domain.EncodeCommand(event, data)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.ws.WriteMessage(websocket.TextMessage, frame)
}

// Create submits a new task.
func (s *Session) Create(draft domain.Draft) error {
	return s.emit(domain.EventTaskCreate, draft)
}

type updatePayload struct {
	ID string `json:"id"`
	domain.Patch
}

// Update shallow-merges the patch into the task with the given id.
func (s *Session) Update(id string, patch domain.Patch) error {
	return s.emit(domain.EventTaskUpdate, updatePayload{ID: id, Patch: patch})
}

// Move drags the task to another column.
func (s *Session) Move(id, column string) error {
	return s.emit(domain.EventTaskMove, map[string]string{"id": id, "column": column})
}

// Delete removes the task.
func (s *Session) Delete(id string) error {
	return s.emit(domain.EventTaskDelete, id)
}

// SetStatus changes the column through an update, the way the status
// picker does it, as opposed to Move which the drag path uses.
func (s *Session) SetStatus(id, column string) error {
	return s.Update(id, domain.Patch{Column: &column})
}

// ToggleFavorite flips the favorite flag based on the mirrored state.
func (s *Session) ToggleFavorite(id string) error {
	task, ok := s.find(id)
	if !ok {
		return fmt.Errorf("task %s not in view", id)
	}
	next := !task.IsFavorite
	return s.Update(id, domain.Patch{IsFavorite: &next})
}

// ToggleArchive archives a visible task or restores an archived one.
func (s *Session) ToggleArchive(id string) error {
	task, ok := s.find(id)
	if !ok {
		return fmt.Errorf("task %s not in view", id)
	}
	next := !task.Archived
	return s.Update(id, domain.Patch{Archived: &next})
}

// Duplicate creates a copy of the task; the relay assigns the new id
// and owner.
func (s *Session) Duplicate(id string) error {
	task, ok := s.find(id)
	if !ok {
		return fmt.Errorf("task %s not in view", id)
	}
	return s.Create(domain.Draft{
		Title:        task.Title + " (Copy)",
		Description:  task.Description,
		Priority:     task.Priority,
		Category:     task.Category,
		Column:       task.Column,
		Attachments:  task.Attachments,
		DueDate:      task.DueDate,
		TimeEstimate: task.TimeEstimate,
		Tags:         task.Tags,
	})
}

// AttachFile appends an inline-encoded attachment to the task. The
// attachments field is replaced as a whole, so the current mirrored
// list plus the new entry is sent.
func (s *Session) AttachFile(id string, att domain.Attachment) error {
	task, ok := s.find(id)
	if !ok {
		return fmt.Errorf("task %s not in view", id)
	}
	next := append(append([]domain.Attachment{}, task.Attachments...), att)
	return s.Update(id, domain.Patch{Attachments: &next})
}

func (s *Session) find(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return s.tasks[i].Clone(), true
		}
	}
	return domain.Task{}, false
}
