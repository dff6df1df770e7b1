// Package roles decides whether an authenticated subject may perform a named
// action. The rule table is built once and never mutated afterwards.
package roles

import (
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/users"
)

// Action names a guarded operation.
type Action string

const (
	ActionAdmin      Action = "ADMIN"
	ActionModifyUser Action = "modify user"
)

// Subject is the view of an authenticated caller the rules need.
type Subject interface {
	SubjectID() string
	SubjectRole() users.RoleType // empty for clients
	SubjectEmail() string
}

// Request carries the parts of the inbound request a rule may inspect.
type Request struct {
	TargetID    string // path id of the user being acted on
	TargetEmail string // email query of the user being acted on
}

// Rule reports whether subject may perform an action for request.
type Rule func(subject Subject, request Request) bool

// Authorizer evaluates actions against an immutable rule table.
type Authorizer struct {
	rules map[Action]Rule
}

// NewAuthorizer copies rules into a new Authorizer.
func NewAuthorizer(rules map[Action]Rule) *Authorizer {
	table := make(map[Action]Rule, len(rules))
	for action, rule := range rules {
		if rule != nil {
			table[action] = rule
		}
	}
	return &Authorizer{rules: table}
}

// DefaultRules returns the process rule table.
func DefaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionAdmin: func(s Subject, _ Request) bool {
			return isAdmin(s)
		},
		ActionModifyUser: func(s Subject, r Request) bool {
			if isAdmin(s) {
				return true
			}
			if r.TargetID != "" && r.TargetID == s.SubjectID() {
				return true
			}
			return r.TargetEmail != "" && r.TargetEmail == s.SubjectEmail()
		},
	}
}

func isAdmin(s Subject) bool {
	return s.SubjectRole() == users.RoleAdmin
}

// Can reports whether subject may perform action. Unknown actions are denied.
func (a *Authorizer) Can(subject Subject, action Action, request Request) bool {
	if a == nil || subject == nil {
		return false
	}
	rule, ok := a.rules[action]
	if !ok {
		return false
	}
	return rule(subject, request)
}

// Authorize returns nil when allowed and a 403 AuthError otherwise.
func (a *Authorizer) Authorize(subject Subject, action Action, request Request) error {
	if a.Can(subject, action, request) {
		return nil
	}
	return errs.NewForbidden("Access Denied - You don't have permission to: " + string(action))
}

// Actions lists the registered action names.
func (a *Authorizer) Actions() []Action {
	actions := make([]Action, 0, len(a.rules))
	for action := range a.rules {
		actions = append(actions, action)
	}
	return actions
}
