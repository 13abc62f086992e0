// Package sampler implements the sensitive-detector side of volume roles:
// it collects the energy deposits and boundary crossings selected by a
// volume's role configuration.
package sampler

import (
	"sync"

	"github.com/niess/calzone/pkg/kernel"
)

// Deposit is a recorded energy deposit, in the volume's local frame.
type Deposit struct {
	X, Y, Z float64
	Energy  float64
}

// Crossing is a recorded boundary crossing.
type Crossing struct {
	X, Y, Z float64
	Ingoing bool
}

// Sampler collects the data selected by a volume's roles. It is safe for
// concurrent use by transport workers.
type Sampler struct {
	mu        sync.Mutex
	volume    string
	roles     kernel.Roles
	deposits  []Deposit
	crossings []Crossing
}

// Compile-time interface check.
var _ kernel.Detector = (*Sampler)(nil)

// New returns a sampler for the given volume path and roles.
func New(volume string, roles kernel.Roles) *Sampler {
	return &Sampler{volume: volume, roles: roles}
}

func (s *Sampler) Volume() string      { return s.volume }
func (s *Sampler) Roles() kernel.Roles { return s.roles }

// Deposit records an energy deposit if the deposits role asks for it.
func (s *Sampler) Deposit(x, y, z, energy float64) {
	if s.roles.Deposits != kernel.ActionRecord && s.roles.Deposits != kernel.ActionCatch {
		return
	}
	s.mu.Lock()
	s.deposits = append(s.deposits, Deposit{X: x, Y: y, Z: z, Energy: energy})
	s.mu.Unlock()
}

// Crossing records a boundary crossing if the matching role asks for it.
func (s *Sampler) Crossing(x, y, z float64, ingoing bool) {
	action := s.roles.Outgoing
	if ingoing {
		action = s.roles.Ingoing
	}
	if action != kernel.ActionRecord && action != kernel.ActionCatch {
		return
	}
	s.mu.Lock()
	s.crossings = append(s.crossings, Crossing{X: x, Y: y, Z: z, Ingoing: ingoing})
	s.mu.Unlock()
}

// Deposits returns a copy of the recorded deposits.
func (s *Sampler) Deposits() []Deposit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Deposit, len(s.deposits))
	copy(out, s.deposits)
	return out
}

// Crossings returns a copy of the recorded crossings.
func (s *Sampler) Crossings() []Crossing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Crossing, len(s.crossings))
	copy(out, s.crossings)
	return out
}

// Clear drops all recorded data, keeping the roles.
func (s *Sampler) Clear() {
	s.mu.Lock()
	s.deposits = nil
	s.crossings = nil
	s.mu.Unlock()
}

// Factory creates samplers when volume roles are set.
type Factory struct{}

// Compile-time interface check.
var _ kernel.DetectorFactory = Factory{}

// NewDetector returns a fresh sampler for the volume.
func (Factory) NewDetector(volume string, roles kernel.Roles) (kernel.Detector, error) {
	return New(volume, roles), nil
}

// ParseRoles builds a role configuration from action keywords. Empty
// strings leave the action at ignore.
func ParseRoles(deposits, ingoing, outgoing string) (kernel.Roles, error) {
	var roles kernel.Roles
	var err error
	if roles.Deposits, err = kernel.ParseAction(deposits); err != nil {
		return kernel.Roles{}, err
	}
	if roles.Ingoing, err = kernel.ParseAction(ingoing); err != nil {
		return kernel.Roles{}, err
	}
	if roles.Outgoing, err = kernel.ParseAction(outgoing); err != nil {
		return kernel.Roles{}, err
	}
	return roles, nil
}
