package housekeeping

import (
	"context"

	"frontdesk/internal/backend"
	"frontdesk/internal/cache"
)

const TaskTypeCheckoutCleaning = "Checkout Cleaning"

// AssignmentHook runs after a task for bookingRoomID was assigned or
// cancelled by the front-desk user userID.
type AssignmentHook func(userID, bookingRoomID int64)

type Service struct {
	backend Backend
	cache   Cache
	loggerf func(format string, args ...interface{})

	onAssignmentSuccess AssignmentHook
}

func NewService(b Backend, c Cache, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{backend: b, cache: c, loggerf: loggerf}
}

// OnAssignmentSuccess registers the hook fired after assign and cancel.
func (s *Service) OnAssignmentSuccess(hook AssignmentHook) {
	s.onAssignmentSuccess = hook
}

// ActiveTask returns the room's open cleaning task, or nil.
func (s *Service) ActiveTask(ctx context.Context, bookingRoomID int64) (*backend.HousekeepingTask, error) {
	if bookingRoomID <= 0 {
		return nil, ErrInvalidID
	}
	return s.backend.ActiveTask(ctx, bookingRoomID)
}

// Assign gives the room's cleaning to housekeeperID and returns the task
// as the backend now reports it.
func (s *Service) Assign(ctx context.Context, userID, bookingRoomID, housekeeperID int64) (*backend.HousekeepingTask, error) {
	if bookingRoomID <= 0 {
		return nil, ErrInvalidID
	}
	if housekeeperID <= 0 {
		return nil, ErrStaffRequired
	}

	current, err := s.backend.ActiveTask(ctx, bookingRoomID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Status.Active() {
		return nil, ErrTaskAlreadyActive
	}

	created, err := s.backend.AssignTask(ctx, backend.AssignTaskRequest{
		BookingRoomID: bookingRoomID,
		StaffID:       housekeeperID,
		TaskType:      TaskTypeCheckoutCleaning,
	})
	if err != nil {
		s.loggerf("level=error msg=housekeeping assignment failed booking_room_id=%d staff_id=%d err=%v", bookingRoomID, housekeeperID, err)
		return nil, err
	}
	s.loggerf("level=info msg=housekeeping task assigned booking_room_id=%d staff_id=%d task_id=%d user_id=%d", bookingRoomID, housekeeperID, created.TaskID, userID)

	task, err := s.backend.ActiveTask(ctx, bookingRoomID)
	if err != nil {
		s.loggerf("level=error msg=failed to refresh housekeeping task booking_room_id=%d err=%v", bookingRoomID, err)
		task = created
	}
	s.fire(userID, bookingRoomID)
	return task, nil
}

// Cancel marks taskID cancelled. confirmed must be set by the caller after
// staff acknowledged the prompt.
func (s *Service) Cancel(ctx context.Context, userID, taskID, bookingRoomID int64, confirmed bool) (*backend.HousekeepingTask, error) {
	if taskID <= 0 {
		return nil, ErrInvalidID
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if err := s.backend.UpdateTaskStatus(ctx, taskID, backend.TaskCancelled); err != nil {
		s.loggerf("level=error msg=housekeeping cancel failed task_id=%d err=%v", taskID, err)
		return nil, err
	}
	s.loggerf("level=info msg=housekeeping task cancelled task_id=%d user_id=%d", taskID, userID)

	if bookingRoomID <= 0 {
		return nil, nil
	}
	task, err := s.backend.ActiveTask(ctx, bookingRoomID)
	if err != nil {
		s.loggerf("level=error msg=failed to refresh housekeeping task booking_room_id=%d err=%v", bookingRoomID, err)
		task = nil
	}
	s.fire(userID, bookingRoomID)
	return task, nil
}

// Housekeepers lists assignable staff, cached when Redis is available.
func (s *Service) Housekeepers(ctx context.Context) ([]backend.Staff, error) {
	var out []backend.Staff
	if s.cache != nil && s.cache.GetJSON(ctx, cache.HousekeepersKey, &out) {
		return out, nil
	}
	out, err := s.backend.Housekeepers(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetJSON(ctx, cache.HousekeepersKey, out)
	}
	return out, nil
}

func (s *Service) fire(userID, bookingRoomID int64) {
	if s.onAssignmentSuccess != nil {
		s.onAssignmentSuccess(userID, bookingRoomID)
	}
}
