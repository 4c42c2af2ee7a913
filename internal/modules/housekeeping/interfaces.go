package housekeeping

import (
	"context"

	"frontdesk/internal/backend"
)

type Backend interface {
	ActiveTask(ctx context.Context, bookingRoomID int64) (*backend.HousekeepingTask, error)
	AssignTask(ctx context.Context, req backend.AssignTaskRequest) (*backend.HousekeepingTask, error)
	UpdateTaskStatus(ctx context.Context, taskID int64, status backend.TaskStatus) error
	Housekeepers(ctx context.Context) ([]backend.Staff, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{})
}
