package file

import (
	"context"
	"fmt"
	"strings"

	"github.com/abduss/storeit/internal/auth"
	"github.com/google/uuid"
)

// ActionKind is the closed set of mutations a client can request by name.
type ActionKind string

const (
	ActionRename ActionKind = "rename"
	ActionShare  ActionKind = "share"
	ActionDelete ActionKind = "delete"
)

// ParseActionKind rejects anything outside the known action names.
func ParseActionKind(raw string) (ActionKind, error) {
	switch k := ActionKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case ActionRename, ActionShare, ActionDelete:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, raw)
	}
}

// Action carries the arguments for one mutation. Only the fields relevant to Kind are read.
type Action struct {
	Kind      ActionKind
	Name      string
	Extension string
	Emails    []string
}

// ActionResult reports the outcome of Apply. Record is set for rename and
// share, Status for delete.
type ActionResult struct {
	Kind   ActionKind `json:"action"`
	Record *Record    `json:"file,omitempty"`
	Status string     `json:"status,omitempty"`
}

// Apply dispatches an action to its handler.
func (s *MutationService) Apply(ctx context.Context, requester auth.Requester, id uuid.UUID, action Action) (ActionResult, error) {
	result := ActionResult{Kind: action.Kind}

	switch action.Kind {
	case ActionRename:
		rec, err := s.Rename(ctx, requester, id, action.Name, action.Extension)
		if err != nil {
			return ActionResult{}, err
		}
		result.Record = &rec
	case ActionShare:
		rec, err := s.UpdateSharedUsers(ctx, requester, id, action.Emails)
		if err != nil {
			return ActionResult{}, err
		}
		result.Record = &rec
	case ActionDelete:
		res, err := s.Delete(ctx, requester, id)
		if err != nil {
			return ActionResult{}, err
		}
		result.Status = res.Status
	default:
		return ActionResult{}, invalidArgument("apply", id.String(), "unknown action %q", action.Kind)
	}
	return result, nil
}
