package wssec

import (
	"fmt"
	"strings"
)

// Action is one WS-Security processing step
type Action string

const (
	ActionUsernameToken Action = "UsernameToken"
	ActionSignature     Action = "Signature"
	ActionEncrypt       Action = "Encrypt"
)

// Policy is the set of security actions a pipeline applies or requires.
// The order actions are applied in is fixed by the pipelines; the policy
// only selects which ones run.
type Policy struct {
	actions map[Action]bool
}

// NewPolicy builds a policy from explicit actions
func NewPolicy(actions ...Action) Policy {
	p := Policy{actions: make(map[Action]bool, len(actions))}
	for _, a := range actions {
		p.actions[a] = true
	}
	return p
}

// ParsePolicy parses a space-separated action list such as
// "UsernameToken Signature Encrypt", the format WSS4J deployments use
// for their securementActions property.
func ParsePolicy(s string) (Policy, error) {
	p := Policy{actions: make(map[Action]bool)}
	for _, word := range strings.Fields(s) {
		switch Action(word) {
		case ActionUsernameToken, ActionSignature, ActionEncrypt:
			p.actions[Action(word)] = true
		default:
			return Policy{}, fmt.Errorf("unknown security action: %q", word)
		}
	}
	return p, nil
}

// Requires reports whether the policy includes the action
func (p Policy) Requires(a Action) bool {
	return p.actions[a]
}

// Without returns a copy of the policy with the given actions removed.
// Used to derive the response policy from the request policy: responses
// are signed and encrypted but carry no UsernameToken.
func (p Policy) Without(remove ...Action) Policy {
	out := Policy{actions: make(map[Action]bool, len(p.actions))}
	for a := range p.actions {
		out.actions[a] = true
	}
	for _, a := range remove {
		delete(out.actions, a)
	}
	return out
}

// IsEmpty reports whether no actions are configured
func (p Policy) IsEmpty() bool {
	return len(p.actions) == 0
}

// String renders the policy in the canonical pipeline order
func (p Policy) String() string {
	var parts []string
	for _, a := range []Action{ActionUsernameToken, ActionSignature, ActionEncrypt} {
		if p.actions[a] {
			parts = append(parts, string(a))
		}
	}
	return strings.Join(parts, " ")
}
