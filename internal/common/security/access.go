package security

import "bookshelf_api/internal/domain/model"

// Action is an operation a requester wants to perform on a book.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Decision is the outcome of an access check. Reason is set on denial and is
// safe to return to the client.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Identity is the part of an authenticated user the policy looks at.
type Identity struct {
	ID   string
	Role string
}

// IdentityOf returns nil for a nil user so anonymous callers can be passed
// straight through.
func IdentityOf(u *model.User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{ID: u.ID, Role: u.Role}
}

// Authorize decides whether requester may perform action on a book owned by
// ownerID. Reads are public; writes and deletes need ownership or admin.
func Authorize(requester *Identity, ownerID string, action Action) Decision {
	switch action {
	case ActionRead:
		return allow()
	case ActionWrite, ActionDelete:
		if requester == nil || requester.ID == "" {
			return deny("authentication required to " + string(action) + " this book")
		}
		if IsAdmin(requester) {
			return allow()
		}
		if ownerID != "" && requester.ID == ownerID {
			return allow()
		}
		return deny("only the owner or an admin may " + string(action) + " this book")
	default:
		return deny("unknown action " + string(action))
	}
}

// CanUpdateProfile allows self-service updates only.
func CanUpdateProfile(requester *Identity, targetUserID string) Decision {
	if requester == nil || requester.ID == "" {
		return deny("authentication required")
	}
	if requester.ID != targetUserID {
		return deny("profiles can only be updated by their owner")
	}
	return allow()
}

// IsAdmin is the admin gate predicate.
func IsAdmin(requester *Identity) bool {
	return requester != nil && requester.Role == model.RoleAdmin
}
