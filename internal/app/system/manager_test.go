package system

import (
	"context"
	"fmt"
	"testing"
)

type recordingService struct {
	NoopService
	events *[]string
	fail   bool
}

func (s recordingService) Start(context.Context) error {
	if s.fail {
		return fmt.Errorf("boom")
	}
	*s.events = append(*s.events, "start:"+s.ServiceName)
	return nil
}

func (s recordingService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop:"+s.ServiceName)
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(recordingService{NoopService: NoopService{ServiceName: name}, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i, e := range want {
		if events[i] != e {
			t.Fatalf("event %d: expected %s, got %s", i, e, events[i])
		}
	}
}

func TestManagerRejectsDuplicates(t *testing.T) {
	m := NewManager()
	if err := m.Register(NoopService{ServiceName: "players"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "players"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(recordingService{NoopService: NoopService{ServiceName: "ok"}, events: &events})
	_ = m.Register(recordingService{NoopService: NoopService{ServiceName: "bad"}, events: &events, fail: true})

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start failure")
	}
	if len(events) != 2 || events[1] != "stop:ok" {
		t.Fatalf("expected rollback stop of started services, got %v", events)
	}
}
