package config

// CooldownState is the only mutable object the core touches: the last
// Control-over-Dynamics subtype the assembler selected, and the ply it was
// selected at. Callers that want parallel evaluation of independent moves
// must supply distinct CooldownState instances (spec §5).
type CooldownState struct {
	LastKind string
	LastPly  int
	hasValue bool
}

// NewCooldownState returns an empty ledger (no prior CoD selection).
func NewCooldownState() *CooldownState {
	return &CooldownState{}
}

// Record updates the ledger after the assembler emits a CoD tag.
func (c *CooldownState) Record(kind string, ply int) {
	c.LastKind = kind
	c.LastPly = ply
	c.hasValue = true
}

// Has reports whether any CoD subtype has ever been recorded.
func (c *CooldownState) Has() bool {
	return c != nil && c.hasValue
}

// Snapshot is the serializable form persisted by Store.
type Snapshot struct {
	LastKind string `json:"last_kind"`
	LastPly  int    `json:"last_ply"`
}

// ToSnapshot converts the ledger to its persisted form.
func (c *CooldownState) ToSnapshot() Snapshot {
	if c == nil || !c.hasValue {
		return Snapshot{}
	}
	return Snapshot{LastKind: c.LastKind, LastPly: c.LastPly}
}

// FromSnapshot restores a ledger from its persisted form.
func FromSnapshot(s Snapshot) *CooldownState {
	if s.LastKind == "" {
		return NewCooldownState()
	}
	return &CooldownState{LastKind: s.LastKind, LastPly: s.LastPly, hasValue: true}
}
