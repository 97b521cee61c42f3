package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoCurrentUser        = errors.New("no current user")
	ErrAccountNotFound      = errors.New("account not found")
	ErrWrongPlan            = errors.New("wrong plan")
	ErrWrongStatus          = errors.New("wrong plan status")
	ErrMemberNotFound       = errors.New("team member not found")
	ErrBillingAdminNotFound = errors.New("billing admin not found")
	ErrAlreadyOnTeam        = errors.New("already on team")
	ErrSeatLimit            = errors.New("no free seat")
	ErrInvalidSeats         = errors.New("invalid seat count")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotTeamOwner         = errors.New("not a team owner")
	ErrUnknownTier          = errors.New("unknown pricing tier")
	ErrTeamHolder           = errors.New("account holds the team")
)

// PreconditionError reports a mutation that was refused because the account
// was not in a state that allows it. The state is left untouched.
type PreconditionError struct {
	Op     string
	Reason error
}

func (e *PreconditionError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("cannot %s", e.Op)
	}
	return fmt.Sprintf("cannot %s: %v", e.Op, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Reason
}

func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
