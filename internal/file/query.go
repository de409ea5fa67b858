package file

import (
	"fmt"
	"strings"

	"github.com/abduss/storeit/internal/auth"
)

// Field names a queryable record attribute.
type Field string

const (
	FieldOwner     Field = "owner"
	FieldUsers     Field = "users"
	FieldType      Field = "type"
	FieldName      Field = "name"
	FieldSize      Field = "size"
	FieldCreatedAt Field = "createdAt"
	FieldUpdatedAt Field = "updatedAt"
)

var sortableFields = map[Field]bool{
	FieldName:      true,
	FieldSize:      true,
	FieldType:      true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
}

// Predicate is a filter understood by the metadata store. The set of
// implementations is closed: equality, containment and disjunction.
type Predicate interface {
	predicate()
}

// EqualPredicate matches when the field equals any of Values.
type EqualPredicate struct {
	Field  Field
	Values []string
}

// ContainsPredicate matches array fields holding Value and text fields containing it as a substring.
type ContainsPredicate struct {
	Field Field
	Value string
}

// OrPredicate matches when any of its children match.
type OrPredicate struct {
	Preds []Predicate
}

func (EqualPredicate) predicate()    {}
func (ContainsPredicate) predicate() {}
func (OrPredicate) predicate()       {}

// Equal builds an equality (or set-membership, for several values) predicate.
func Equal(field Field, values ...string) Predicate {
	return EqualPredicate{Field: field, Values: values}
}

// Contains builds a containment predicate.
func Contains(field Field, value string) Predicate {
	return ContainsPredicate{Field: field, Value: value}
}

// Or composes predicates disjunctively.
func Or(preds ...Predicate) Predicate {
	return OrPredicate{Preds: preds}
}

// OrderBy is a sort key and direction.
type OrderBy struct {
	Field Field
	Desc  bool
}

// DefaultOrder lists the most recently updated files first.
var DefaultOrder = OrderBy{Field: FieldUpdatedAt, Desc: true}

func (o OrderBy) String() string {
	dir := "asc"
	if o.Desc {
		dir = "desc"
	}
	return string(o.Field) + "-" + dir
}

// ParseSort reads a "field-asc" or "field-desc" sort string. Empty input yields DefaultOrder.
func ParseSort(raw string) (OrderBy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOrder, nil
	}
	idx := strings.LastIndex(raw, "-")
	if idx <= 0 {
		return OrderBy{}, fmt.Errorf("%w: sort %q must look like field-asc or field-desc", ErrInvalidArgument, raw)
	}
	field, dir := Field(raw[:idx]), strings.ToLower(raw[idx+1:])
	if !sortableFields[field] {
		return OrderBy{}, fmt.Errorf("%w: cannot sort by %q", ErrInvalidArgument, field)
	}
	switch dir {
	case "asc":
		return OrderBy{Field: field}, nil
	case "desc":
		return OrderBy{Field: field, Desc: true}, nil
	default:
		return OrderBy{}, fmt.Errorf("%w: unknown sort direction %q", ErrInvalidArgument, dir)
	}
}

// Query is a conjunction of predicates plus ordering and an optional limit.
// A zero Order leaves the result unordered; a zero Limit means no cap.
type Query struct {
	Where []Predicate
	Order OrderBy
	Limit int
}

// ListOptions are the caller-controlled parts of a listing.
type ListOptions struct {
	Types      []Type
	SearchText string
	Sort       OrderBy
	Limit      int
}

// VisibleTo matches records the requester owns or that are shared with their email.
func VisibleTo(requester auth.Requester) Predicate {
	if requester.Email == "" {
		return OwnedBy(requester.ID)
	}
	return Or(
		Equal(FieldOwner, requester.ID),
		Contains(FieldUsers, requester.Email),
	)
}

// OwnedBy matches records whose owner is ownerID. Sharing does not count.
func OwnedBy(ownerID string) Predicate {
	return Equal(FieldOwner, ownerID)
}

// BuildListQuery turns listing options into a store query scoped to the requester.
func BuildListQuery(requester auth.Requester, opts ListOptions) Query {
	q := Query{
		Where: []Predicate{VisibleTo(requester)},
		Order: opts.Sort,
		Limit: opts.Limit,
	}
	if len(opts.Types) > 0 {
		values := make([]string, 0, len(opts.Types))
		for _, t := range opts.Types {
			values = append(values, string(t))
		}
		q.Where = append(q.Where, Equal(FieldType, values...))
	}
	if opts.SearchText != "" {
		q.Where = append(q.Where, Contains(FieldName, opts.SearchText))
	}
	if q.Order.Field == "" {
		q.Order = DefaultOrder
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	return q
}
