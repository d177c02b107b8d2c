package leave

// Policy holds the date rules a leave type is checked against.
type Policy struct {
	// MinNoticeDays between the request date and the start date.
	MinNoticeDays int
	// AllowPastStart permits start dates before today.
	AllowPastStart bool
	// MaxBackdateDays bounds how far before today a start may lie; only
	// meaningful when AllowPastStart is set.
	MaxBackdateDays int
}

// DefaultPolicies returns the built-in policy table. Each call builds a new
// map, so changes made by one caller are never seen by another.
func DefaultPolicies() map[Type]Policy {
	return map[Type]Policy{
		TypeAnnual:    {MinNoticeDays: 7},
		TypeSick:      {MinNoticeDays: 0, AllowPastStart: true, MaxBackdateDays: 3},
		TypeCasual:    {MinNoticeDays: 1},
		TypeMaternity: {MinNoticeDays: 30},
		TypePaternity: {MinNoticeDays: 7},
		TypeUnpaid:    {MinNoticeDays: 3},
	}
}

// PolicyTable is an immutable lookup of policies by leave type.
type PolicyTable struct {
	policies map[Type]Policy
}

// NewPolicyTable copies policies so later changes to the source map have no effect.
func NewPolicyTable(policies map[Type]Policy) PolicyTable {
	copied := make(map[Type]Policy, len(policies))
	for t, p := range policies {
		copied[t] = p
	}
	return PolicyTable{policies: copied}
}

// PolicyFor returns the policy for t, or the zero policy (no notice,
// no past starts) when the type is not listed.
func (pt PolicyTable) PolicyFor(t Type) Policy {
	return pt.policies[t]
}
