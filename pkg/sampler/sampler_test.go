package sampler

import (
	"testing"

	"github.com/niess/calzone/pkg/kernel"
)

func TestDepositFiltering(t *testing.T) {
	s := New("World.Detector", kernel.Roles{Deposits: kernel.ActionRecord})
	s.Deposit(1, 2, 3, 0.5)
	s.Crossing(0, 0, 0, true)

	deposits := s.Deposits()
	if len(deposits) != 1 {
		t.Fatalf("deposits: got %d want 1", len(deposits))
	}
	if deposits[0].Energy != 0.5 {
		t.Fatalf("energy: got %v", deposits[0].Energy)
	}
	if len(s.Crossings()) != 0 {
		t.Fatal("crossing recorded without a role")
	}
}

func TestCrossingRoles(t *testing.T) {
	s := New("World.Detector", kernel.Roles{Ingoing: kernel.ActionCatch})
	s.Crossing(1, 0, 0, true)
	s.Crossing(2, 0, 0, false)

	crossings := s.Crossings()
	if len(crossings) != 1 {
		t.Fatalf("crossings: got %d want 1", len(crossings))
	}
	if !crossings[0].Ingoing {
		t.Fatal("recorded the wrong direction")
	}
}

func TestClear(t *testing.T) {
	s := New("World.Detector", kernel.Roles{
		Deposits: kernel.ActionRecord,
		Outgoing: kernel.ActionRecord,
	})
	s.Deposit(0, 0, 0, 1)
	s.Crossing(0, 0, 0, false)
	s.Clear()
	if len(s.Deposits()) != 0 || len(s.Crossings()) != 0 {
		t.Fatal("Clear left data behind")
	}
	if s.Roles().Deposits != kernel.ActionRecord {
		t.Fatal("Clear dropped the roles")
	}
}

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles("record", "catch", "")
	if err != nil {
		t.Fatalf("ParseRoles: %v", err)
	}
	want := kernel.Roles{
		Deposits: kernel.ActionRecord,
		Ingoing:  kernel.ActionCatch,
		Outgoing: kernel.ActionIgnore,
	}
	if roles != want {
		t.Fatalf("roles: got %+v want %+v", roles, want)
	}
	if _, err := ParseRoles("bogus", "", ""); err == nil {
		t.Fatal("bad keyword accepted")
	}
}

func TestFactory(t *testing.T) {
	d, err := Factory{}.NewDetector("World.A", kernel.Roles{Deposits: kernel.ActionRecord})
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	if d.Volume() != "World.A" {
		t.Fatalf("volume: %q", d.Volume())
	}
}
