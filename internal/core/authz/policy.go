// Package authz decides whether a caller may perform an action on a record.
package authz

import "obituary-service/internal/core/auth"

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type DenyReason string

const (
	ReasonNone            DenyReason = ""
	ReasonUnauthenticated DenyReason = "unauthenticated"
	ReasonForbidden       DenyReason = "forbidden"
)

// Decision is Allow (Reason empty) or Deny(Reason).
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Decision{Allowed: true}

func deny(r DenyReason) Decision { return Decision{Reason: r} }

// Decide evaluates the ownership rules. A nil caller is anonymous; ownerID is
// the recorded owner of the target record, empty when there is none.
//
//	Read           -> Allow
//	Create         -> Allow iff authenticated
//	Update, Delete -> Allow iff authenticated and (admin or owner)
//
// Unknown actions are denied as forbidden.
func Decide(caller *auth.ClaimSet, action Action, ownerID string) Decision {
	if action == ActionRead {
		return allow
	}
	if caller == nil || !caller.Authenticated() {
		return deny(ReasonUnauthenticated)
	}
	switch action {
	case ActionCreate:
		return allow
	case ActionUpdate, ActionDelete:
		if caller.HasRole(auth.RoleAdmin) {
			return allow
		}
		if ownerID != "" && caller.SubjectID == ownerID {
			return allow
		}
		return deny(ReasonForbidden)
	default:
		return deny(ReasonForbidden)
	}
}
