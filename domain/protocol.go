package domain

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Wire event names, shared by the relay endpoint and the client session.
const (
	EventRegisterUser = "register:user"
	EventTaskCreate   = "task:create"
	EventTaskUpdate   = "task:update"
	EventTaskMove     = "task:move"
	EventTaskDelete   = "task:delete"
	EventSyncTasks    = "sync:tasks"
)

// Envelope frames every message on the event channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type updatePayload struct {
	ID string `json:"id"`
	Patch
}

type movePayload struct {
	ID     string `json:"id"`
	Column string `json:"column"`
}

// DecodeCommand maps an inbound envelope onto the closed command set.
// Unknown event names and malformed payloads return an error; callers
// log and ignore them.
func DecodeCommand(env Envelope) (Command, error) {
	switch env.Event {
	case EventRegisterUser:
		var userID string
		if err := sonic.ConfigStd.Unmarshal(env.Data, &userID); err != nil {
			return Command{}, fmt.Errorf("%s: %w", env.Event, err)
		}
		return Command{Type: RegisterUser, UserID: userID}, nil
	case EventTaskCreate:
		var draft Draft
		if err := sonic.ConfigStd.Unmarshal(env.Data, &draft); err != nil {
			return Command{}, fmt.Errorf("%s: %w", env.Event, err)
		}
		return Command{Type: CreateTask, Draft: draft}, nil
	case EventTaskUpdate:
		var p updatePayload
		if err := sonic.ConfigStd.Unmarshal(env.Data, &p); err != nil {
			return Command{}, fmt.Errorf("%s: %w", env.Event, err)
		}
		return Command{Type: UpdateTask, ID: p.ID, Patch: p.Patch}, nil
	case EventTaskMove:
		var p movePayload
		if err := sonic.ConfigStd.Unmarshal(env.Data, &p); err != nil {
			return Command{}, fmt.Errorf("%s: %w", env.Event, err)
		}
		return Command{Type: MoveTask, ID: p.ID, Column: p.Column}, nil
	case EventTaskDelete:
		// The original client sends the bare id string; tolerate an
		// {"id": ...} object as well.
		var id string
		if err := sonic.ConfigStd.Unmarshal(env.Data, &id); err != nil {
			var p struct {
				ID string `json:"id"`
			}
			if err := sonic.ConfigStd.Unmarshal(env.Data, &p); err != nil {
				return Command{}, fmt.Errorf("%s: %w", env.Event, err)
			}
			id = p.ID
		}
		return Command{Type: DeleteTask, ID: id}, nil
	default:
		return Command{}, fmt.Errorf("unknown event %q", env.Event)
	}
}

// EncodeSync frames a full task list as a sync:tasks push.
func EncodeSync(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := sonic.ConfigStd.Marshal(tasks)
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.Marshal(Envelope{Event: EventSyncTasks, Data: data})
}

// EncodeCommand frames an outbound client command.
func EncodeCommand(event string, data any) ([]byte, error) {
	raw, err := sonic.ConfigStd.Marshal(data)
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.Marshal(Envelope{Event: event, Data: raw})
}
