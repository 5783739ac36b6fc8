package access

import "strings"

// Sentinel subjects, matched by rule rather than by literal id.
const (
	// SubjectAnyUser matches every principal.
	SubjectAnyUser = "*"
	// SubjectOwner matches the principal only when it is the list's owner.
	SubjectOwner = "#owner"
)

// Permission is the outcome an entry assigns to its operations.
type Permission string

const (
	Permit Permission = "PERMIT"
	Deny   Permission = "DENY"
)

// Decision is the result of evaluating a single entry against a principal.
type Decision int

const (
	// NotApplicable means the entry has no opinion on the request.
	NotApplicable Decision = iota
	// Permitted means the entry grants the operation.
	Permitted
	// Denied means the entry refuses the operation.
	Denied
)

// Entry grants or refuses a set of operations to one subject. Subject and
// permission are immutable; the operation set may shrink, and an entry left
// with zero operations is pruned from its list.
type Entry struct {
	Who        string     `json:"who"`
	Access     Permission `json:"access"`
	Operations []string   `json:"operations"`
}

// Check evaluates the entry for the given principal and operation. The entry
// is applicable when its subject matches (any-user sentinel, literal user id,
// one of the principal's groups, or the owner sentinel with isOwner set) and
// its operation set contains op under case-insensitive comparison.
func (e *Entry) Check(userID string, groups []string, isOwner bool, op string) Decision {
	if !e.subjectMatches(userID, groups, isOwner) {
		return NotApplicable
	}
	if !e.hasOperation(op) {
		return NotApplicable
	}
	if e.Access == Permit {
		return Permitted
	}
	return Denied
}

func (e *Entry) subjectMatches(userID string, groups []string, isOwner bool) bool {
	switch e.Who {
	case SubjectAnyUser:
		return true
	case SubjectOwner:
		return isOwner
	case userID:
		return true
	}
	for _, g := range groups {
		if e.Who == g {
			return true
		}
	}
	return false
}

func (e *Entry) hasOperation(op string) bool {
	for _, o := range e.Operations {
		if strings.EqualFold(o, op) {
			return true
		}
	}
	return false
}

// removeOperations drops the named operations from the entry's set,
// case-insensitively, and reports whether any operations remain.
func (e *Entry) removeOperations(ops []string) bool {
	kept := e.Operations[:0]
	for _, existing := range e.Operations {
		drop := false
		for _, op := range ops {
			if strings.EqualFold(existing, op) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, existing)
		}
	}
	e.Operations = kept
	return len(e.Operations) > 0
}
