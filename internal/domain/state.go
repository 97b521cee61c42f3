package domain

import "sort"

// State is the persisted document: who is logged in and every known account.
type State struct {
	CurrentUser string
	Users       map[string]Account
}

func NewState() State {
	return State{Users: map[string]Account{}}
}

// Clone copies the users map. Accounts are values and are cloned individually
// before they are changed.
func (s State) Clone() State {
	users := make(map[string]Account, len(s.Users))
	for email, account := range s.Users {
		users[email] = account
	}
	return State{CurrentUser: s.CurrentUser, Users: users}
}

func (s State) SortedEmails() []string {
	emails := make([]string, 0, len(s.Users))
	for email := range s.Users {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
