// Package storage implements the optional persistence boundary: an
// Azure Table mirror of individual task mutations and a redis snapshot
// cache with change notifications. Neither sits in the relay's
// broadcast path; the in-memory store stays authoritative.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"board-relay/domain"
)

// Tables mirrors tasks into an Azure Table, one partition per user.
type Tables struct {
	taskTable *aztables.Client
}

// New creates a Tables instance from the given connection string.
func New(connStr, tasksTable string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{taskTable: svc.NewClient(tasksTable)}, nil
}

type taskEntity struct {
	aztables.Entity
	Title        string `json:"Title"`
	Description  string `json:"Description"`
	Priority     string `json:"Priority"`
	Category     string `json:"Category"`
	BoardColumn  string `json:"BoardColumn"`
	Attachments  string `json:"Attachments"`
	Archived     bool   `json:"Archived"`
	IsFavorite   bool   `json:"IsFavorite"`
	DueDate      string `json:"DueDate"`
	TimeEstimate string `json:"TimeEstimate"`
	Tags         string `json:"Tags"`
	CreatedAt    string `json:"CreatedAt"`
}

func encodeEntity(task domain.Task) (taskEntity, error) {
	attachments, err := json.Marshal(task.Attachments)
	if err != nil {
		return taskEntity{}, err
	}
	return taskEntity{
		Entity:       aztables.Entity{PartitionKey: task.UserID, RowKey: task.ID},
		Title:        task.Title,
		Description:  task.Description,
		Priority:     task.Priority,
		Category:     task.Category,
		BoardColumn:  task.Column,
		Attachments:  string(attachments),
		Archived:     task.Archived,
		IsFavorite:   task.IsFavorite,
		DueDate:      task.DueDate,
		TimeEstimate: task.TimeEstimate,
		Tags:         task.Tags,
		CreatedAt:    task.CreatedAt,
	}, nil
}

func decodeEntity(ent taskEntity) (domain.Task, error) {
	task := domain.Task{
		ID:           ent.RowKey,
		UserID:       ent.PartitionKey,
		Title:        ent.Title,
		Description:  ent.Description,
		Priority:     ent.Priority,
		Category:     ent.Category,
		Column:       ent.BoardColumn,
		Archived:     ent.Archived,
		IsFavorite:   ent.IsFavorite,
		DueDate:      ent.DueDate,
		TimeEstimate: ent.TimeEstimate,
		Tags:         ent.Tags,
		CreatedAt:    ent.CreatedAt,
	}
	task.Attachments = []domain.Attachment{}
	if ent.Attachments != "" {
		if err := json.Unmarshal([]byte(ent.Attachments), &task.Attachments); err != nil {
			return domain.Task{}, err
		}
	}
	return task, nil
}

// FetchTasks retrieves every mirrored task for the provided user.
func (t *Tables) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := t.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			task, err := decodeEntity(ent)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// UpsertTask writes the task's current state, replacing any previous row.
func (t *Tables) UpsertTask(ctx context.Context, task domain.Task) error {
	ent, err := encodeEntity(task)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	mode := aztables.UpdateModeReplace
	_, err = t.taskTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: mode})
	return err
}

// DeleteTask removes the mirrored row. Deleting a row that is already
// gone is a no-op so the mirror stays idempotent with the relay.
func (t *Tables) DeleteTask(ctx context.Context, userID, taskID string) error {
	_, err := t.taskTable.DeleteEntity(ctx, userID, taskID, nil)
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 {
		return nil
	}
	return err
}
