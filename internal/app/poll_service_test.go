package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/journal"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fetchCall struct {
	body string
	err  error
}

type fakeFetcher struct {
	calls     []fetchCall
	fromDates []int64
}

func (f *fakeFetcher) Fetch(_ context.Context, fromDate int64) ([]byte, error) {
	f.fromDates = append(f.fromDates, fromDate)
	c := f.calls[0]
	if len(f.calls) > 1 {
		f.calls = f.calls[1:]
	}
	if c.err != nil {
		return nil, c.err
	}
	return []byte(c.body), nil
}

type fakeNotifier struct {
	sent []string
	fail bool
}

func (n *fakeNotifier) Notify(text string) Delivery {
	n.sent = append(n.sent, text)
	if n.fail {
		return Delivery{Err: errors.New("telegram: chat not found")}
	}
	return Delivery{Delivered: true}
}

type fakeJournal struct {
	entries []*journal.Entry
	err     error
}

func (j *fakeJournal) Record(_ context.Context, e *journal.Entry) error {
	j.entries = append(j.entries, e)
	return j.err
}

func newTestService(f Fetcher, n Notifier, j journal.Repository) (*PollService, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewPollService(f, n, j, logrus.NewEntry(logger), 500), hook
}

func TestRunCycle_StatusChanged(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": [{"homework_name":"hw1","status":"reviewing"}], "current_date": 1000}`}}}
	n := &fakeNotifier{}
	j := &fakeJournal{}
	s, _ := newTestService(f, n, j)

	res := s.RunCycle(context.Background())

	want := `Homework review status changed for "hw1". The work has been taken for review by a reviewer.`
	if len(n.sent) != 1 || n.sent[0] != want {
		t.Fatalf("unexpected messages %q", n.sent)
	}
	if s.Checkpoint() != 1000 || res.NextCheckpoint != 1000 {
		t.Errorf("expected checkpoint 1000, got %d", s.Checkpoint())
	}
	if f.fromDates[0] != 500 {
		t.Errorf("expected first fetch from 500, got %d", f.fromDates[0])
	}
	if len(j.entries) != 1 || j.entries[0].Outcome != journal.OutcomeStatusChanged {
		t.Errorf("unexpected journal entries %+v", j.entries)
	}
}

func TestRunCycle_Unchanged(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": [], "current_date": 1000}`}}}
	n := &fakeNotifier{}
	j := &fakeJournal{}
	s, _ := newTestService(f, n, j)

	res := s.RunCycle(context.Background())

	if len(n.sent) != 1 || n.sent[0] != homework.UnchangedMessage {
		t.Fatalf("unexpected messages %q", n.sent)
	}
	if !res.Unchanged || s.Checkpoint() != 1000 {
		t.Errorf("expected unchanged cycle with checkpoint 1000, got %+v", res)
	}
	if j.entries[0].Outcome != journal.OutcomeUnchanged {
		t.Errorf("unexpected outcome %s", j.entries[0].Outcome)
	}
}

func TestRunCycle_EachHomeworkNotified(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": [
		{"homework_name":"hw1","status":"approved"},
		{"homework_name":"hw2","status":"rejected"}
	], "current_date": 1000}`}}}
	n := &fakeNotifier{}
	s, _ := newTestService(f, n, journal.NewNoopRepository())

	s.RunCycle(context.Background())

	if len(n.sent) != 2 || !strings.Contains(n.sent[0], "hw1") || !strings.Contains(n.sent[1], "hw2") {
		t.Fatalf("unexpected messages %q", n.sent)
	}
}

func TestRunCycle_TranslationErrorSendsNothingButError(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": [
		{"homework_name":"hw1","status":"approved"},
		{"homework_name":"hw2","status":"unknown_code"}
	], "current_date": 1000}`}}}
	n := &fakeNotifier{}
	s, _ := newTestService(f, n, journal.NewNoopRepository())

	res := s.RunCycle(context.Background())

	if !errors.Is(res.Err, homework.ErrUnknownStatus) {
		t.Fatalf("expected unknown status error, got %v", res.Err)
	}
	if len(n.sent) != 1 || !strings.HasPrefix(n.sent[0], "Program failure:") {
		t.Fatalf("expected only the failure message, got %q", n.sent)
	}
	if s.Checkpoint() != 500 {
		t.Errorf("checkpoint must not move on failure, got %d", s.Checkpoint())
	}
}

func TestRunCycle_MissingCurrentDateKeepsCheckpoint(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": []}`}}}
	s, _ := newTestService(f, &fakeNotifier{}, journal.NewNoopRepository())

	s.RunCycle(context.Background())

	if s.Checkpoint() != 500 {
		t.Errorf("expected checkpoint 500, got %d", s.Checkpoint())
	}
}

func TestRunCycle_DeliveryFailureKeepsCheckpoint(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{
		{body: `{"homeworks": [{"homework_name":"hw1","status":"approved"}], "current_date": 2000}`},
	}}
	n := &fakeNotifier{fail: true}
	s, _ := newTestService(f, n, journal.NewNoopRepository())

	res := s.RunCycle(context.Background())
	if res.Delivered {
		t.Fatal("expected undelivered cycle")
	}
	if res.Err != nil {
		t.Errorf("delivery failure must not become a cycle error, got %v", res.Err)
	}
	if len(n.sent) != 1 {
		t.Errorf("delivery failure must not trigger an error message, sent %q", n.sent)
	}

	n.fail = false
	s.RunCycle(context.Background())
	if f.fromDates[1] != 500 {
		t.Errorf("second cycle should reuse checkpoint 500, got %d", f.fromDates[1])
	}
	if s.Checkpoint() != 2000 {
		t.Errorf("expected checkpoint 2000 after delivery, got %d", s.Checkpoint())
	}
}

func TestRunCycle_SameErrorNotifiedOnce(t *testing.T) {
	fail := homework.NewTransportError("unexpected status 500 from endpoint", nil)
	f := &fakeFetcher{calls: []fetchCall{{err: fail}}}
	n := &fakeNotifier{}
	s, _ := newTestService(f, n, journal.NewNoopRepository())

	first := s.RunCycle(context.Background())
	second := s.RunCycle(context.Background())

	if len(n.sent) != 1 {
		t.Fatalf("expected one notification, got %q", n.sent)
	}
	if !first.ErrorNotified || !second.ErrorSuppressed {
		t.Errorf("unexpected results %+v / %+v", first, second)
	}
}

func TestRunCycle_DifferentErrorsNotifiedTwice(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{
		{err: homework.NewTransportError("unexpected status 500 from endpoint", nil)},
		{err: homework.NewTransportError("unexpected status 502 from endpoint", nil)},
	}}
	n := &fakeNotifier{}
	s, _ := newTestService(f, n, journal.NewNoopRepository())

	s.RunCycle(context.Background())
	s.RunCycle(context.Background())

	if len(n.sent) != 2 || n.sent[0] == n.sent[1] {
		t.Fatalf("expected two distinct notifications, got %q", n.sent)
	}
}

func TestRunCycle_UndeliveredErrorIsRetried(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{err: homework.NewTransportError("unexpected status 500 from endpoint", nil)}}}
	n := &fakeNotifier{fail: true}
	s, _ := newTestService(f, n, journal.NewNoopRepository())

	s.RunCycle(context.Background())
	n.fail = false
	res := s.RunCycle(context.Background())
	s.RunCycle(context.Background())

	if !res.ErrorNotified {
		t.Error("expected error to be sent once delivery works again")
	}
	if len(n.sent) != 2 {
		t.Errorf("expected failed attempt plus one delivery, got %q", n.sent)
	}
}

func TestRunCycle_TimeoutIsReportedAndLoopContinues(t *testing.T) {
	timeout := homework.NewTransportError("request to endpoint timeout after 30s", context.DeadlineExceeded)
	f := &fakeFetcher{calls: []fetchCall{
		{err: timeout},
		{body: `{"homeworks": [], "current_date": 1000}`},
	}}
	n := &fakeNotifier{}
	s, hook := newTestService(f, n, journal.NewNoopRepository())

	res := s.RunCycle(context.Background())
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "timeout") {
		t.Fatalf("expected one timeout notification, got %q", n.sent)
	}
	if homework.KindOf(res.Err) != homework.KindTransport {
		t.Errorf("expected transport kind, got %s", homework.KindOf(res.Err))
	}

	var sawError bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && strings.Contains(e.Message, "timeout") {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected timeout to be logged at error level")
	}

	s.RunCycle(context.Background())
	if len(f.fromDates) != 2 || f.fromDates[1] != 500 {
		t.Errorf("expected retry from 500, got %v", f.fromDates)
	}
	if s.Checkpoint() != 1000 {
		t.Errorf("expected checkpoint 1000 after recovery, got %d", s.Checkpoint())
	}
}

func TestRunCycle_ShapeError(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `[]`}}}
	n := &fakeNotifier{}
	j := &fakeJournal{}
	s, _ := newTestService(f, n, j)

	res := s.RunCycle(context.Background())

	if !errors.Is(res.Err, homework.ErrInvalidResponseShape) {
		t.Fatalf("expected shape error, got %v", res.Err)
	}
	if j.entries[0].Outcome != journal.OutcomeFailed || !j.entries[0].Delivered {
		t.Errorf("unexpected journal entry %+v", j.entries[0])
	}
}

func TestRunCycle_JournalFailureIgnored(t *testing.T) {
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": [], "current_date": 1000}`}}}
	j := &fakeJournal{err: errors.New("connection refused")}
	s, hook := newTestService(f, &fakeNotifier{}, j)

	res := s.RunCycle(context.Background())

	if !res.Delivered || s.Checkpoint() != 1000 {
		t.Errorf("journal failure must not affect the cycle: %+v", res)
	}
	if last := hook.LastEntry(); last == nil || last.Level != logrus.WarnLevel {
		t.Errorf("expected warning for journal failure, got %+v", last)
	}
}

// cancellingFetcher simulates a shutdown signal arriving during the request.
type cancellingFetcher struct {
	cancel context.CancelFunc
}

func (f *cancellingFetcher) Fetch(ctx context.Context, _ int64) ([]byte, error) {
	f.cancel()
	<-ctx.Done()
	return nil, homework.NewTransportError("request to endpoint failed", ctx.Err())
}

func TestRunCycle_ShutdownDuringFetchSendsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := &fakeNotifier{}
	j := &fakeJournal{}
	s, _ := newTestService(&cancellingFetcher{cancel: cancel}, n, j)

	res := s.RunCycle(ctx)

	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected cancellation in result, got %v", res.Err)
	}
	if len(n.sent) != 0 {
		t.Errorf("nothing should be sent on shutdown, got %q", n.sent)
	}
	if len(j.entries) != 0 {
		t.Errorf("interrupted cycle should not be journaled, got %+v", j.entries)
	}
	if s.Checkpoint() != 500 || res.ErrorNotified {
		t.Errorf("unexpected state after shutdown: checkpoint %d, result %+v", s.Checkpoint(), res)
	}
}

type ctxCheckingJournal struct {
	ctxErr error
}

func (j *ctxCheckingJournal) Record(ctx context.Context, _ *journal.Entry) error {
	j.ctxErr = ctx.Err()
	return nil
}

func TestRunCycle_JournalWrittenAfterLateCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeFetcher{calls: []fetchCall{{body: `{"homeworks": [], "current_date": 1000}`}}}
	n := &cancelOnNotify{cancel: cancel}
	j := &ctxCheckingJournal{}
	s, _ := newTestService(f, n, j)

	s.RunCycle(ctx)

	if j.ctxErr != nil {
		t.Errorf("journal should get a live context, got %v", j.ctxErr)
	}
}

type cancelOnNotify struct {
	cancel context.CancelFunc
}

func (n *cancelOnNotify) Notify(string) Delivery {
	n.cancel()
	return Delivery{Delivered: true}
}
