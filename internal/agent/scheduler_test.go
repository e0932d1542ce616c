package agent

import (
	"context"
	"errors"
	"testing"
)

type countingAgent struct {
	name     string
	schedule string
	runs     int
	err      error
}

func (a *countingAgent) Name() string { return a.name }
func (a *countingAgent) Schedule() string { return a.schedule }

func (a *countingAgent) Execute(ctx context.Context) error {
	a.runs++
	return a.err
}

func TestRegisterAgent(t *testing.T) {
	s := NewScheduler(nil)

	if err := s.RegisterAgent(&countingAgent{name: "nightly", schedule: "0 4 * * *"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterAgent(&countingAgent{name: "manual"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterAgent(&countingAgent{name: "broken", schedule: "every tuesday"}); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}

	names := s.RegisteredAgents()
	if len(names) != 2 || names[0] != "nightly" || names[1] != "manual" {
		t.Fatalf("registered = %v", names)
	}
}

func TestRunAgentByName(t *testing.T) {
	s := NewScheduler(nil)
	failing := &countingAgent{name: "failing", err: errors.New("boom")}
	ok := &countingAgent{name: "ok"}
	for _, a := range []*countingAgent{failing, ok} {
		if err := s.RegisterAgent(a); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.RunAgentByName(context.Background(), "ok"); err != nil {
		t.Fatal(err)
	}
	if err := s.RunAgentByName(context.Background(), "failing"); err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v", err)
	}
	if err := s.RunAgentByName(context.Background(), "missing"); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("err = %v, want unknown agent", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("runs ok=%d failing=%d", ok.runs, failing.runs)
	}
}

func TestScheduledRunWithoutRedis(t *testing.T) {
	s := NewScheduler(nil)
	a := &countingAgent{name: "nightly", schedule: "0 4 * * *"}

	s.runScheduled(a)
	s.runScheduled(a)
	if a.runs != 2 {
		t.Fatalf("runs = %d, want 2", a.runs)
	}

	s.Start()
	<-s.Stop().Done()
}
