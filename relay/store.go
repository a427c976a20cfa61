package relay

import "board-relay/domain"

// Store holds the flat task collection in insertion order. It is not
// safe for concurrent use on its own; the Relay serializes access.
type Store struct {
	tasks []domain.Task
}

func NewStore() *Store { return &Store{tasks: []domain.Task{}} }

// Insert appends a task.
func (s *Store) Insert(t domain.Task) {
	s.tasks = append(s.tasks, t)
}

// Get returns a pointer into the collection for in-place mutation.
func (s *Store) Get(id string) (*domain.Task, bool) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i], true
		}
	}
	return nil, false
}

// Delete removes the task with the given id and reports whether it
// existed.
func (s *Store) Delete(id string) bool {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// ForUser returns copies of every task owned by userID, preserving
// insertion order. Never nil.
func (s *Store) ForUser(userID string) []domain.Task {
	out := []domain.Task{}
	for i := range s.tasks {
		if s.tasks[i].UserID == userID {
			out = append(out, s.tasks[i].Clone())
		}
	}
	return out
}

// Len reports the total number of tasks across all users.
func (s *Store) Len() int { return len(s.tasks) }
