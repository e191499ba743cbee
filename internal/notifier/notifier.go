// Package notifier consumes the engine's outbound events and turns them
// into emails. Delivery failures are isolated per recipient and never feed
// back into booking state.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/metinatakli/movie-booking-engine/internal/mailer"
	"github.com/metinatakli/movie-booking-engine/internal/scheduler"
	"github.com/metinatakli/movie-booking-engine/internal/tasks"
)

// ReminderInterval is how often the upcoming-showings scan runs; each run
// covers the shows starting within the next interval, so consecutive runs
// tile the timeline.
const ReminderInterval = 8 * time.Hour

type Notifier struct {
	logger   *slog.Logger
	mailer   mailer.Mailer
	users    domain.UserRepository
	bookings domain.BookingRepository
	shows    domain.ShowRepository
	movies   domain.MovieRepository
	now      func() time.Time
}

func New(
	logger *slog.Logger,
	m mailer.Mailer,
	users domain.UserRepository,
	bookings domain.BookingRepository,
	shows domain.ShowRepository,
	movies domain.MovieRepository) *Notifier {

	return &Notifier{
		logger:   logger,
		mailer:   m,
		users:    users,
		bookings: bookings,
		shows:    shows,
		movies:   movies,
		now:      time.Now,
	}
}

// Register attaches the notifier's handlers to the worker.
func (n *Notifier) Register(w *scheduler.Worker) {
	w.Handle(tasks.TypeEmailBookingConfirmed, n.HandleBookingConfirmed)
	w.Handle(tasks.TypeEmailNewShow, n.HandleNewShow)
	w.HandlePeriodic(tasks.TypeEmailShowReminders, ReminderInterval, n.HandleShowReminders)
}

// HandleBookingConfirmed sends the confirmation email for a paid booking.
func (n *Notifier) HandleBookingConfirmed(ctx context.Context, payload json.RawMessage) error {
	var data tasks.BookingConfirmedPayload

	err := json.Unmarshal(payload, &data)
	if err != nil {
		return err
	}

	booking, err := n.bookings.GetById(ctx, data.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			n.logger.Warn("skipping confirmation email for unknown booking", "booking_id", data.BookingID)
			return nil
		}

		return err
	}

	show, err := n.shows.GetById(ctx, booking.ShowID)
	if err != nil {
		return err
	}

	movie, err := n.movies.GetById(ctx, show.MovieID)
	if err != nil {
		return err
	}

	user, err := n.users.GetById(ctx, booking.UserID)
	if err != nil {
		return err
	}

	err = n.mailer.Send(user.Email, "booking_confirmed.tmpl", map[string]any{
		"Name":       user.Name,
		"MovieTitle": movie.Title,
		"Seats":      strings.Join(booking.Seats, ", "),
		"ShowTime":   show.StartTime.Format("Jan 2, 2006 15:04"),
	})
	if err != nil {
		return fmt.Errorf("failed to send confirmation email for booking %s: %w", booking.ID, err)
	}

	return nil
}

// HandleNewShow fans a new-show announcement out to every known user. A
// failed recipient is counted and skipped, never retried as a whole batch.
func (n *Notifier) HandleNewShow(ctx context.Context, payload json.RawMessage) error {
	var data tasks.NewShowPayload

	err := json.Unmarshal(payload, &data)
	if err != nil {
		return err
	}

	show, err := n.shows.GetById(ctx, data.ShowID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			n.logger.Warn("skipping announcement for unknown show", "show_id", data.ShowID)
			return nil
		}

		return err
	}

	movie, err := n.movies.GetById(ctx, show.MovieID)
	if err != nil {
		return err
	}

	users, err := n.users.GetAll(ctx)
	if err != nil {
		return err
	}

	sent, failed := 0, 0

	for _, user := range users {
		err := n.mailer.Send(user.Email, "new_show.tmpl", map[string]any{
			"Name":       user.Name,
			"MovieTitle": movie.Title,
		})
		if err != nil {
			failed++
			n.logger.Error("failed to send new show email", "user_id", user.ID, "error", err)
			continue
		}

		sent++
	}

	n.logger.Info("new show notifications dispatched", "show_id", show.ID, "sent", sent, "failed", failed)

	return nil
}

// HandleShowReminders scans the shows starting within the next interval
// and reminds every attendee holding a paid booking, aggregating
// per-recipient outcomes.
func (n *Notifier) HandleShowReminders(ctx context.Context, _ json.RawMessage) error {
	from := n.now()
	to := from.Add(ReminderInterval)

	shows, err := n.shows.GetUpcomingShows(ctx, from, to)
	if err != nil {
		return err
	}

	sent, failed := 0, 0

	for _, show := range shows {
		if len(show.Attendees) == 0 {
			continue
		}

		users, err := n.users.GetByIds(ctx, show.Attendees)
		if err != nil {
			n.logger.Error("failed to load attendees for reminder", "show_id", show.ShowID, "error", err)
			failed += len(show.Attendees)
			continue
		}

		for _, user := range users {
			err := n.mailer.Send(user.Email, "show_reminder.tmpl", map[string]any{
				"Name":       user.Name,
				"MovieTitle": show.MovieTitle,
				"ShowTime":   show.StartTime.Format("Jan 2, 2006 15:04"),
			})
			if err != nil {
				failed++
				n.logger.Error("failed to send reminder email", "user_id", user.ID, "error", err)
				continue
			}

			sent++
		}
	}

	if sent > 0 || failed > 0 {
		n.logger.Info("show reminders dispatched", "sent", sent, "failed", failed)
	}

	return nil
}
