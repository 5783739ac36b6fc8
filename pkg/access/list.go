package access

import (
	"encoding/json"
	"fmt"
)

// List is the access-control list attached to exactly one resource: an
// optional owner id plus an ordered slice of entries.
type List struct {
	Owner   string   `json:"owner,omitempty"`
	Entries []*Entry `json:"entries"`
}

// Decode reconstructs a List from its canonical JSON form. The decoded list
// evaluates identically to the one that produced the document.
func Decode(doc []byte) (*List, error) {
	var l List
	if err := json.Unmarshal(doc, &l); err != nil {
		return nil, fmt.Errorf("decode acl: %w", err)
	}
	return &l, nil
}

// Encode returns the list's canonical JSON form.
func (l *List) Encode() json.RawMessage {
	doc, err := json.Marshal(l)
	if err != nil {
		// A List contains only strings and slices; marshaling cannot fail.
		panic(fmt.Sprintf("encode acl: %v", err))
	}
	return doc
}

// CanUser reports whether the principal may perform op on the resource this
// list protects. The principal is owner when userID equals the list's owner.
// Entries are scanned in insertion order; the first applicable entry decides.
// No applicable entry means deny.
func (l *List) CanUser(userID string, groups []string, op string) bool {
	isOwner := l.Owner != "" && userID == l.Owner
	for _, e := range l.Entries {
		switch e.Check(userID, groups, isOwner, op) {
		case Permitted:
			return true
		case Denied:
			return false
		}
	}
	return false
}

// Permit appends an entry granting ops to subject and returns the updated
// serialized form.
func (l *List) Permit(subject string, ops ...string) json.RawMessage {
	return l.AddEntry(&Entry{Who: subject, Access: Permit, Operations: ops})
}

// Deny appends an entry refusing ops to subject and returns the updated
// serialized form.
func (l *List) Deny(subject string, ops ...string) json.RawMessage {
	return l.AddEntry(&Entry{Who: subject, Access: Deny, Operations: ops})
}

// AddEntry appends an entry in insertion order and returns the updated
// serialized form.
func (l *List) AddEntry(e *Entry) json.RawMessage {
	l.Entries = append(l.Entries, e)
	return l.Encode()
}

// Clear removes the named operations from every entry whose subject equals
// subject, pruning entries left with zero operations. With no operations
// given, every entry for the subject is removed. Returns the updated
// serialized form.
func (l *List) Clear(subject string, ops ...string) json.RawMessage {
	kept := l.Entries[:0]
	for _, e := range l.Entries {
		if e.Who != subject {
			kept = append(kept, e)
			continue
		}
		if len(ops) > 0 && e.removeOperations(ops) {
			kept = append(kept, e)
		}
	}
	l.Entries = kept
	return l.Encode()
}

// SetOwner replaces the list's owner and returns the updated serialized form.
func (l *List) SetOwner(owner string) json.RawMessage {
	l.Owner = owner
	return l.Encode()
}
