// Package tasks manages per-user task assignments, completion stamps and the
// retention sweep that keeps completed history bounded.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/megamart/ledger-service/internal/app/domain/task"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/pkg/logger"
)

// ErrDuplicateTaskNumber reports an assignment that would reuse a task number
// already present for the user.
var ErrDuplicateTaskNumber = errors.New("duplicate task number")

// ErrTaskNotFound reports a status change for a task number the user does not
// have.
var ErrTaskNotFound = errors.New("task not found")

// Service manages task assignments.
type Service struct {
	users storage.UserStore
	store storage.TaskStore
	log   *logger.Logger

	now func() time.Time
}

// New constructs a tasks service.
func New(users storage.UserStore, store storage.TaskStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tasks")
	}
	return &Service{
		users: users,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

// Assign appends tasks to a user's assignment. Task numbers must be unique
// within the batch and against the user's existing tasks; a clash rejects the
// whole batch.
func (s *Service) Assign(ctx context.Context, userID string, incoming []task.Task) (task.Assignment, error) {
	if len(incoming) == 0 {
		return task.Assignment{}, fmt.Errorf("tasks are required")
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return task.Assignment{}, err
	}

	existing, err := s.store.GetAssignment(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return task.Assignment{}, err
	}

	seen := make(map[int]struct{}, len(existing.Tasks)+len(incoming))
	for _, t := range existing.Tasks {
		seen[t.TaskNumber] = struct{}{}
	}
	for i := range incoming {
		t := &incoming[i]
		if t.Commission < 0 {
			return task.Assignment{}, fmt.Errorf("commission must not be negative")
		}
		if _, dup := seen[t.TaskNumber]; dup {
			return task.Assignment{}, fmt.Errorf("%w: %d", ErrDuplicateTaskNumber, t.TaskNumber)
		}
		seen[t.TaskNumber] = struct{}{}
		t.Status = task.StatusPending
		t.CompletedDate = nil
		t.CommissionPaid = false
	}

	if err := s.store.AppendTasks(ctx, userID, incoming); err != nil {
		return task.Assignment{}, err
	}

	s.log.WithField("user_id", userID).
		WithField("count", len(incoming)).
		Info("tasks assigned")
	return s.store.GetAssignment(ctx, userID)
}

// Get returns a user's assignment. A user with no assignment yet gets an
// empty one rather than an error.
func (s *Service) Get(ctx context.Context, userID string) (task.Assignment, error) {
	a, err := s.store.GetAssignment(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return task.Assignment{UserID: userID}, nil
	}
	return a, err
}

// SetStatus changes one task's status. The first completion stamps the
// completion time and credits the task's commission to the user's balance;
// moving back to pending clears the stamp but never claws the commission
// back, and a later re-completion does not pay again. After a completion the
// retention sweep runs: once the user holds task.RetentionThreshold completed
// tasks, the oldest task.RetentionThreshold completed tasks are purged.
func (s *Service) SetStatus(ctx context.Context, userID string, taskNumber int, status task.Status) (task.Assignment, error) {
	a, err := s.store.GetAssignment(ctx, userID)
	if err != nil {
		return task.Assignment{}, err
	}

	var commission float64
	found := false
	for i := range a.Tasks {
		if a.Tasks[i].TaskNumber != taskNumber {
			continue
		}
		found = true
		a.Tasks[i].Status = status
		if status == task.StatusComplete {
			if a.Tasks[i].CompletedDate == nil {
				stamp := s.now()
				a.Tasks[i].CompletedDate = &stamp
			}
			if !a.Tasks[i].CommissionPaid && a.Tasks[i].Commission > 0 {
				commission = a.Tasks[i].Commission
				a.Tasks[i].CommissionPaid = true
			}
		} else {
			a.Tasks[i].CompletedDate = nil
		}
		break
	}
	if !found {
		return task.Assignment{}, fmt.Errorf("%w: %d", ErrTaskNotFound, taskNumber)
	}

	if status == task.StatusComplete {
		if swept := sweepCompleted(&a); swept > 0 {
			s.log.WithField("user_id", userID).
				WithField("purged", swept).
				Info("completed task history purged")
		}
	}

	if commission > 0 {
		if _, err := s.users.CreditBalance(ctx, userID, commission); err != nil {
			return task.Assignment{}, err
		}
	}
	if err := s.store.ReplaceTasks(ctx, userID, a.Tasks); err != nil {
		if commission > 0 {
			// Unwind the credit so a failed write cannot leave the
			// commission paid twice on retry.
			if _, derr := s.users.DebitBalance(ctx, userID, commission); derr != nil {
				s.log.WithError(derr).
					WithField("user_id", userID).
					Warn("commission unwind failed")
			}
		}
		return task.Assignment{}, err
	}
	return a, nil
}

// sweepCompleted removes the oldest completed tasks once their count reaches
// the retention threshold, returning how many were removed. Oldest means
// earliest list position; assignment order is preserved for the rest.
func sweepCompleted(a *task.Assignment) int {
	completed := 0
	for _, t := range a.Tasks {
		if t.Status == task.StatusComplete {
			completed++
		}
	}
	if completed < task.RetentionThreshold {
		return 0
	}

	kept := make([]task.Task, 0, len(a.Tasks))
	removed := 0
	for _, t := range a.Tasks {
		if t.Status == task.StatusComplete && removed < task.RetentionThreshold {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	a.Tasks = kept
	return removed
}
