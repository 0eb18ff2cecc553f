// Package domain holds typed identifiers shared across verticals.
//
// Wrapping uuid.UUID in distinct types keeps a CaseID from being passed where
// a SuspectID is expected; the compiler does the checking instead of review.
package domain

import "github.com/google/uuid"

type (
	// ActorID identifies any authenticated actor: citizen or police member.
	ActorID uuid.UUID
	// PersonID identifies a registered person (national-id bearing).
	PersonID uuid.UUID
	// CaseID identifies a criminal case aggregate.
	CaseID uuid.UUID
	// SuspectID identifies a suspect within a case.
	SuspectID uuid.UUID
	// SubmissionID identifies a suspect submission awaiting sergeant review.
	SubmissionID uuid.UUID
	// InterrogationID identifies an interrogation record.
	InterrogationID uuid.UUID
	// DecisionID identifies a captain decision.
	DecisionID uuid.UUID
	// ChiefDecisionID identifies a police chief decision.
	ChiefDecisionID uuid.UUID
	// TipOffID identifies a citizen tip-off.
	TipOffID uuid.UUID
	// BailID identifies a bail payment record.
	BailID uuid.UUID
	// RoleID identifies a role row in the open role set.
	RoleID uuid.UUID
)

func (id ActorID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id SuspectID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id InterrogationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DecisionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ChiefDecisionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TipOffID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id BailID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id RoleID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }

func (id ActorID) String() string         { return uuid.UUID(id).String() }
func (id PersonID) String() string        { return uuid.UUID(id).String() }
func (id CaseID) String() string          { return uuid.UUID(id).String() }
func (id SuspectID) String() string       { return uuid.UUID(id).String() }
func (id SubmissionID) String() string    { return uuid.UUID(id).String() }
func (id InterrogationID) String() string { return uuid.UUID(id).String() }
func (id DecisionID) String() string      { return uuid.UUID(id).String() }
func (id ChiefDecisionID) String() string { return uuid.UUID(id).String() }
func (id TipOffID) String() string        { return uuid.UUID(id).String() }
func (id BailID) String() string          { return uuid.UUID(id).String() }
func (id RoleID) String() string          { return uuid.UUID(id).String() }

// Defined types do not inherit uuid.UUID's method set, so text marshaling
// is restated here; without it encoding/json would emit the raw byte array.

func (id ActorID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id PersonID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id CaseID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id SuspectID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id SubmissionID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id InterrogationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id DecisionID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ChiefDecisionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id TipOffID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id BailID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id RoleID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }

func (id *ActorID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PersonID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CaseID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SuspectID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SubmissionID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *InterrogationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DecisionID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ChiefDecisionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TipOffID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BailID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RoleID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseCaseID parses a case ID from its string form.
func ParseCaseID(s string) (CaseID, error) {
	u, err := uuid.Parse(s)
	return CaseID(u), err
}

// ParseSuspectID parses a suspect ID from its string form.
func ParseSuspectID(s string) (SuspectID, error) {
	u, err := uuid.Parse(s)
	return SuspectID(u), err
}

// ParseActorID parses an actor ID from its string form.
func ParseActorID(s string) (ActorID, error) {
	u, err := uuid.Parse(s)
	return ActorID(u), err
}

// ParseSubmissionID parses a submission ID from its string form.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := uuid.Parse(s)
	return SubmissionID(u), err
}

// ParseInterrogationID parses an interrogation ID from its string form.
func ParseInterrogationID(s string) (InterrogationID, error) {
	u, err := uuid.Parse(s)
	return InterrogationID(u), err
}

// ParseDecisionID parses a captain decision ID from its string form.
func ParseDecisionID(s string) (DecisionID, error) {
	u, err := uuid.Parse(s)
	return DecisionID(u), err
}

// ParseTipOffID parses a tip-off ID from its string form.
func ParseTipOffID(s string) (TipOffID, error) {
	u, err := uuid.Parse(s)
	return TipOffID(u), err
}

// ParseBailID parses a bail payment ID from its string form.
func ParseBailID(s string) (BailID, error) {
	u, err := uuid.Parse(s)
	return BailID(u), err
}

// ParsePersonID parses a person ID from its string form.
func ParsePersonID(s string) (PersonID, error) {
	u, err := uuid.Parse(s)
	return PersonID(u), err
}
