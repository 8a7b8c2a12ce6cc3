package etm

import "github.com/joeycumines/go-mcsim/clock"

// Cache and FixedPenalty are additive penalty layers on top of the WCET
// baseline. spec.md §4.6 states their exact cache model is out of scope;
// they are implemented here only so both recognised ETM identifiers
// (spec.md §6) resolve to a working model: et = wcet + penalty, penalty
// fixed at construction.
type penaltyModel struct {
	*WCET
	penalty clock.Cycles
}

func (m *penaltyModel) OnActivate(job JobHandle) {
	m.WCET.OnActivate(job)
	lookupState(m.state, job.ID()).et += m.penalty
}

// Cache is the cache-aware ETM identifier ("cache" in spec.md §6).
type Cache struct{ penaltyModel }

func NewCache(clk Clock, penalty clock.Cycles) *Cache {
	return &Cache{penaltyModel{WCET: NewWCET(clk), penalty: penalty}}
}

// FixedPenalty is the fixed-penalty ETM identifier ("fixedpenalty" in
// spec.md §6).
type FixedPenalty struct{ penaltyModel }

func NewFixedPenalty(clk Clock, penalty clock.Cycles) *FixedPenalty {
	return &FixedPenalty{penaltyModel{WCET: NewWCET(clk), penalty: penalty}}
}
