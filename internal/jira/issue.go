package jira

import (
	"context"
	"fmt"
	"strings"
)

// FieldKind tags the wire shape of an issue field. The builder dispatches
// on this tag, never on the runtime type of a value.
type FieldKind int

const (
	// KindScalar is a plain string field, last write wins.
	KindScalar FieldKind = iota
	// KindReference is a single {id} or {name} object.
	KindReference
	// KindReferenceList is a list of {id} objects, values append.
	KindReferenceList
	// KindStringList is a list of plain strings, values append.
	KindStringList
)

// fieldSpec declares a standard issue field: its kind and, for reference
// kinds, which member of the reference object carries the value.
type fieldSpec struct {
	kind   FieldKind
	member string
}

// issueFields declares every standard field the builder accepts, keyed by
// the field's wire name.
var issueFields = map[string]fieldSpec{
	"summary":     {kind: KindScalar},
	"description": {kind: KindScalar},
	"environment": {kind: KindScalar},
	"duedate":     {kind: KindScalar},
	"project":     {kind: KindReference, member: "id"},
	"issuetype":   {kind: KindReference, member: "id"},
	"priority":    {kind: KindReference, member: "id"},
	"assignee":    {kind: KindReference, member: "name"},
	"versions":    {kind: KindReferenceList, member: "id"},
	"fixVersions": {kind: KindReferenceList, member: "id"},
	"components":  {kind: KindReferenceList, member: "id"},
	"labels":      {kind: KindStringList},
}

// IsIssueField reports whether name is a recognized standard issue field.
func IsIssueField(name string) bool {
	_, ok := issueFields[name]
	return ok
}

// Draft is an issue under construction. Only fields that have been
// explicitly set are held; Fields serializes exactly those, so the remote
// service never sees empty placeholders.
type Draft struct {
	resolver     *Resolver
	scalars      map[string]string
	refs         map[string]string
	refLists     map[string][]string
	labels       []string
	timetracking map[string]string
	custom       map[string]string
}

// NewDraft creates an empty issue draft backed by the given resolver.
func NewDraft(resolver *Resolver) *Draft {
	return &Draft{
		resolver: resolver,
		scalars:  make(map[string]string),
		refs:     make(map[string]string),
		refLists: make(map[string][]string),
		custom:   make(map[string]string),
	}
}

// Set applies a raw CLI or config value to a declared field. The value may
// be a comma-separated list; tokens apply left to right, so later tokens
// append on list fields and overwrite on scalar and reference fields.
// Values that fail attribute resolution are skipped, not errors.
func (d *Draft) Set(ctx context.Context, field, raw string) error {
	spec, ok := issueFields[field]
	if !ok {
		return fmt.Errorf("unknown issue attribute: %s", field)
	}
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if err := d.setOne(ctx, field, spec, token); err != nil {
			return err
		}
	}
	return nil
}

func (d *Draft) setOne(ctx context.Context, field string, spec fieldSpec, value string) error {
	switch spec.kind {
	case KindScalar:
		d.scalars[field] = value

	case KindStringList:
		d.labels = append(d.labels, strings.ToLower(value))

	case KindReferenceList:
		id, ok, err := d.resolver.Resolve(ctx, field, value)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		d.refLists[field] = append(d.refLists[field], id)

	case KindReference:
		member := value
		if d.resolver.HasTable(field) {
			id, ok, err := d.resolver.Resolve(ctx, field, value)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			member = id
		}
		d.refs[field] = member
	}
	return nil
}

// SetCustom sets an extension field by its raw field identifier, such as
// an epic/theme custom field key.
func (d *Draft) SetCustom(key, value string) {
	d.custom[key] = value
}

// SetOriginalEstimate replaces the timetracking object with an
// originalEstimate entry.
func (d *Draft) SetOriginalEstimate(estimate string) {
	d.timetracking = map[string]string{"originalEstimate": estimate}
}

// SetRemainingEstimate replaces the timetracking object with a
// remainingEstimate entry. Any originalEstimate set earlier is discarded;
// combining both goes through the worklog flow instead.
func (d *Draft) SetRemainingEstimate(estimate string) {
	d.timetracking = map[string]string{"remainingEstimate": estimate}
}

// Fields serializes the draft into the field set the create and modify
// endpoints accept. Only fields that were set appear. The draft is not
// consumed; calling Fields repeatedly yields the same result.
func (d *Draft) Fields() map[string]any {
	fields := make(map[string]any)
	for name, value := range d.scalars {
		fields[name] = value
	}
	for name, value := range d.refs {
		fields[name] = map[string]string{issueFields[name].member: value}
	}
	for name, ids := range d.refLists {
		list := make([]map[string]string, 0, len(ids))
		for _, id := range ids {
			list = append(list, map[string]string{"id": id})
		}
		fields[name] = list
	}
	if len(d.labels) > 0 {
		fields["labels"] = append([]string(nil), d.labels...)
	}
	if len(d.timetracking) > 0 {
		tt := make(map[string]string, len(d.timetracking))
		for k, v := range d.timetracking {
			tt[k] = v
		}
		fields["timetracking"] = tt
	}
	for key, value := range d.custom {
		fields[key] = value
	}
	return fields
}
