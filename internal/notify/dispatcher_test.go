package notify

import (
	"context"
	"errors"
	"testing"
)

type fakeSender struct {
	sent    []int64
	failFor map[int64]error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, _ string) error {
	f.sent = append(f.sent, chatID)
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	return nil
}

type fakeIndex struct {
	subscribers map[string][]int64
	err         error
}

func (f *fakeIndex) FindUsersForWallet(_ context.Context, wallet string) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subscribers[wallet], nil
}

func TestDispatchAttemptsEverySubscriber(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]error{2: errors.New("chat blocked bot")}}
	index := &fakeIndex{subscribers: map[string][]int64{"walletA": {1, 2, 3}}}
	d := NewDispatcher(sender, index, nil)

	results, err := d.Dispatch(context.Background(), "walletA", "msg")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	// One failed delivery must not short-circuit the rest.
	if len(sender.sent) != 3 {
		t.Fatalf("attempts = %d, want 3", len(sender.sent))
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.ChatID != 2 {
				t.Errorf("unexpected failure for chat %d", r.ChatID)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestDispatchNoSubscribers(t *testing.T) {
	sender := &fakeSender{}
	index := &fakeIndex{subscribers: map[string][]int64{}}
	d := NewDispatcher(sender, index, nil)

	results, err := d.Dispatch(context.Background(), "walletB", "msg")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 0 || len(sender.sent) != 0 {
		t.Errorf("expected no deliveries, got %v", results)
	}
}

func TestDispatchIndexError(t *testing.T) {
	sender := &fakeSender{}
	index := &fakeIndex{err: errors.New("store down")}
	d := NewDispatcher(sender, index, nil)

	if _, err := d.Dispatch(context.Background(), "walletA", "msg"); err == nil {
		t.Fatal("expected error when subscriber lookup fails")
	}
	if len(sender.sent) != 0 {
		t.Errorf("no deliveries should be attempted on lookup failure")
	}
}
