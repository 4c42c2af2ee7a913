package checkout

import (
	"context"
	"strings"
	"time"

	"frontdesk/internal/backend"
	"frontdesk/internal/metrics"
)

const EventReadiness = "checkout.readiness"

// ReadinessEvent is pushed to the staff member whenever the note state of
// the open booking room changes.
type ReadinessEvent struct {
	BookingID         int64     `json:"bookingId"`
	BookingRoomID     int64     `json:"bookingRoomId"`
	Readiness         Readiness `json:"readiness"`
	CanProcessPayment bool      `json:"canProcessPayment"`
}

func hasNote(note string, found bool) bool {
	return found && len(strings.TrimSpace(note)) > 0
}

// startPollingLocked launches the note poller for the session's current
// generation. Caller holds sess.mu.
func (s *Service) startPollingLocked(sess *Session) {
	if sess.booking == nil {
		return
	}
	ctx, cancel := context.WithCancel(backend.WithToken(context.Background(), sess.token))
	nudge := make(chan struct{}, 1)
	sess.stopPoll = cancel
	sess.nudge = nudge

	gen := sess.generation
	bookingID := sess.booking.BookingID
	roomID := sess.booking.BookingRoomID

	go func() {
		s.pollOnce(ctx, sess, gen, bookingID, roomID)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.pollOnce(ctx, sess, gen, bookingID, roomID)
			case <-nudge:
				s.pollOnce(ctx, sess, gen, bookingID, roomID)
			}
		}
	}()
}

func (s *Service) pollOnce(ctx context.Context, sess *Session, gen uint64, bookingID, roomID int64) {
	sess.mu.Lock()
	if sess.generation != gen {
		sess.mu.Unlock()
		return
	}
	sess.readiness.Checking = true
	sess.mu.Unlock()

	note, found, err := s.backend.HousekeepingNote(ctx, roomID)
	if ctx.Err() != nil {
		return
	}

	sess.mu.Lock()
	if sess.generation != gen {
		sess.mu.Unlock()
		return
	}
	prev := sess.readiness
	r := Readiness{CheckedAt: s.now()}
	if err != nil {
		r.HasNote = prev.HasNote
		r.Note = prev.Note
		r.Error = backend.ServerMessage(err, "Failed to check housekeeping status")
		metrics.ReadinessPollsTotal.WithLabelValues("error").Inc()
	} else {
		r.HasNote = hasNote(note, found)
		r.Note = note
		if r.HasNote {
			metrics.ReadinessPollsTotal.WithLabelValues("ready").Inc()
		} else {
			metrics.ReadinessPollsTotal.WithLabelValues("not_ready").Inc()
		}
	}
	sess.readiness = r
	staffID := sess.staffID
	sess.mu.Unlock()

	if err != nil {
		s.loggerf("level=error msg=housekeeping note poll failed staff_id=%d booking_room_id=%d err=%v", staffID, roomID, err)
	}
	if prev.HasNote != r.HasNote || prev.Note != r.Note || prev.Error != r.Error || prev.CheckedAt.IsZero() {
		s.notify(staffID, EventReadiness, ReadinessEvent{
			BookingID:         bookingID,
			BookingRoomID:     roomID,
			Readiness:         r,
			CanProcessPayment: r.CanProcessPayment(),
		})
	}
}

// RepollAfter schedules one extra note check for the staff member's open
// panel, used after a housekeeper assignment changes.
func (s *Service) RepollAfter(staffID, bookingRoomID int64) {
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.phase.Open() || sess.booking == nil || sess.booking.BookingRoomID != bookingRoomID || sess.nudge == nil {
		return
	}
	nudge := sess.nudge
	time.AfterFunc(s.repollDelay, func() {
		select {
		case nudge <- struct{}{}:
		default:
		}
	})
}

func (s *Service) notify(staffID int64, eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendToUser(staffID, eventType, payload)
}
