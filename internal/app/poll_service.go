// internal/app/poll_service.go
package app

import (
	"context"
	"fmt"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/journal"

	"github.com/sirupsen/logrus"
)

// ErrorMessageFormat wraps the text of a failed cycle before it is sent to the chat.
const ErrorMessageFormat = "Program failure: %v"

// Fetcher returns the raw homework statuses answer for the window starting at fromDate.
type Fetcher interface {
	Fetch(ctx context.Context, fromDate int64) ([]byte, error)
}

// CycleResult describes what a single poll cycle did.
type CycleResult struct {
	FromDate       int64
	NextCheckpoint int64
	Messages       []string // status (or "unchanged") messages produced by the cycle
	Unchanged      bool
	Delivered      bool // every message in Messages was delivered

	Err             error  // fetch, validation or translation failure
	ErrorMessage    string // chat text built from Err
	ErrorNotified   bool
	ErrorSuppressed bool // same as the last notified failure, not sent again
}

// PollService owns the checkpoint and the last-error cache and runs one
// fetch/validate/translate/notify cycle at a time. It is not safe for
// concurrent use; the scheduler calls RunCycle sequentially.
type PollService struct {
	fetcher  Fetcher
	notifier Notifier
	journal  journal.Repository
	logger   *logrus.Entry

	checkpoint       int64
	lastErrorMessage string
}

func NewPollService(
	fetcher Fetcher,
	notifier Notifier,
	journalRepo journal.Repository,
	logger *logrus.Entry,
	startCheckpoint int64, // usually time.Now().Unix()
) *PollService {
	return &PollService{
		fetcher:    fetcher,
		notifier:   notifier,
		journal:    journalRepo,
		logger:     logger,
		checkpoint: startCheckpoint,
	}
}

// Checkpoint returns the from_date the next cycle will use.
func (s *PollService) Checkpoint() int64 {
	return s.checkpoint
}

// RunCycle performs one poll cycle. It never returns an error: failures are
// turned into a chat notification and reported in the CycleResult.
func (s *PollService) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{FromDate: s.checkpoint, NextCheckpoint: s.checkpoint}
	logCtx := s.logger.WithField("from_date", s.checkpoint)

	messages, next, unchanged, err := s.collectMessages(ctx)
	if err != nil {
		res.Err = err
		if ctx.Err() != nil {
			// cancelled by shutdown, the chat is not told
			logCtx.WithError(err).Info("Poll cycle interrupted")
			return res
		}
		s.reportFailure(logCtx, err, &res)
		s.record(ctx, &res)
		return res
	}

	res.Messages = messages
	res.Unchanged = unchanged
	res.Delivered = true
	for _, msg := range messages {
		if d := s.notifier.Notify(msg); !d.Delivered {
			res.Delivered = false
		}
	}

	if res.Delivered {
		if next != s.checkpoint {
			logCtx.WithField("next_checkpoint", next).Debug("Advancing checkpoint")
		}
		s.checkpoint = next
	} else {
		logCtx.WithField("server_checkpoint", next).Warn("Not every message was delivered, keeping checkpoint")
	}
	res.NextCheckpoint = s.checkpoint

	s.record(ctx, &res)
	return res
}

// collectMessages fetches, validates and translates. Every record is
// translated before anything is sent.
func (s *PollService) collectMessages(ctx context.Context) ([]string, int64, bool, error) {
	body, err := s.fetcher.Fetch(ctx, s.checkpoint)
	if err != nil {
		return nil, 0, false, err
	}

	resp, err := homework.DecodeResponse(body)
	if err != nil {
		return nil, 0, false, err
	}

	next := s.checkpoint
	if resp.CurrentDate != nil {
		next = *resp.CurrentDate
	}

	if len(resp.Homeworks) == 0 {
		s.logger.Debug("No new homework statuses")
		return []string{homework.UnchangedMessage}, next, true, nil
	}

	messages := make([]string, 0, len(resp.Homeworks))
	for _, rec := range resp.Homeworks {
		msg, err := homework.ParseStatus(rec)
		if err != nil {
			return nil, 0, false, err
		}
		s.logger.WithFields(logrus.Fields{
			"homework_id": rec.ID,
			"lesson":      rec.LessonName,
			"updated":     rec.DateUpdated,
		}).Info(msg)
		messages = append(messages, msg)
	}
	return messages, next, false, nil
}

func (s *PollService) reportFailure(logCtx *logrus.Entry, err error, res *CycleResult) {
	message := fmt.Sprintf(ErrorMessageFormat, err)
	res.ErrorMessage = message
	logCtx.WithField("kind", homework.KindOf(err).String()).Error(message)

	if message == s.lastErrorMessage {
		logCtx.Debug("Failure already reported, not sending it again")
		res.ErrorSuppressed = true
		return
	}
	if d := s.notifier.Notify(message); d.Delivered {
		s.lastErrorMessage = message
		res.ErrorNotified = true
	}
}

func (s *PollService) record(ctx context.Context, res *CycleResult) {
	entry := &journal.Entry{
		FromDate:       res.FromDate,
		NextCheckpoint: res.NextCheckpoint,
		Delivered:      res.Delivered,
	}
	switch {
	case res.Err != nil:
		entry.Outcome = journal.OutcomeFailed
		entry.Message = res.ErrorMessage
		entry.Delivered = res.ErrorNotified
		entry.ErrorText = res.Err.Error()
	case res.Unchanged:
		entry.Outcome = journal.OutcomeUnchanged
	default:
		entry.Outcome = journal.OutcomeStatusChanged
	}
	if entry.Message == "" && len(res.Messages) > 0 {
		entry.Message = res.Messages[len(res.Messages)-1]
	}

	if err := s.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).Warn("Failed to record poll cycle")
	}
}
