// Package mirror replays a turn's task changes onto a remote task list.
//
// The local session is the source of truth. The mirror only follows it, and
// its failures never change local state.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"proxen/internal/service"
	"proxen/internal/session"
)

// Mirror writes ChangeLogs to one remote list.
type Mirror struct {
	svc    service.Service
	list   string
	logger *zap.Logger
}

// New returns a Mirror writing to the list named list, or the default list
// when list is empty.
func New(svc service.Service, list string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{svc: svc, list: list, logger: logger}
}

// Apply replays changes in order. Each change is attempted independently;
// the returned error joins every failure.
func (m *Mirror) Apply(ctx context.Context, changes session.ChangeLog) error {
	if len(changes) == 0 {
		return nil
	}

	list, err := m.resolveList(ctx)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	var (
		open       []service.Task
		fetched    bool
		listFailed bool
		errs       []error
	)
	for _, c := range changes {
		if c.Kind == session.ChangeAdded {
			if err := m.svc.CreateTask(ctx, list.ID, service.NewTask{Title: c.Description, Notes: c.Notes}); err != nil {
				errs = append(errs, fmt.Errorf("add %q: %w", c.Description, err))
			}
			continue
		}

		// Completed and deleted changes address a remote task by title.
		if listFailed {
			continue
		}
		if !fetched {
			if open, err = m.svc.ListOpenTasks(ctx, list.ID); err != nil {
				errs = append(errs, fmt.Errorf("list open tasks: %w", err))
				listFailed = true
				continue
			}
			fetched = true
		}
		i := findByTitle(open, c.Description)
		if i < 0 {
			m.logger.Debug("mirror: no open remote task", zap.String("kind", string(c.Kind)), zap.String("title", c.Description))
			continue
		}
		remote := open[i]

		switch c.Kind {
		case session.ChangeCompleted:
			err = m.svc.CompleteTask(ctx, list.ID, remote.ID)
		case session.ChangeDeleted:
			err = m.svc.DeleteTask(ctx, list.ID, remote.ID)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", c.Kind, c.Description, err))
			continue
		}
		open = append(open[:i], open[i+1:]...)
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("mirror incomplete", zap.Int("failures", len(errs)), zap.Error(err))
		return fmt.Errorf("mirror: %w", err)
	}
	m.logger.Debug("mirror applied", zap.Int("changes", len(changes)), zap.String("list", list.Title))
	return nil
}

func (m *Mirror) resolveList(ctx context.Context) (service.TaskList, error) {
	if strings.TrimSpace(m.list) == "" {
		return m.svc.DefaultList(ctx)
	}
	return m.svc.ResolveList(ctx, m.list)
}

func findByTitle(tasks []service.Task, title string) int {
	for i, t := range tasks {
		if strings.EqualFold(strings.TrimSpace(t.Title), strings.TrimSpace(title)) {
			return i
		}
	}
	return -1
}
