package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/phuslu/log"
)

// ErrNotFound reports a label or ID absent from a lookup table.
var ErrNotFound = errors.New("not found")

// Lookup is a bijection between a remote numeric identifier and its
// lowercase human-readable label for one attribute category. Both
// directions are kept as explicit maps so reverse lookup is O(1) and a
// duplicate label is caught at build time instead of silently shadowing.
type Lookup struct {
	byID    map[int]string
	byLabel map[string]int
}

// NewLookup returns an empty lookup table.
func NewLookup() *Lookup {
	return &Lookup{
		byID:    make(map[int]string),
		byLabel: make(map[string]int),
	}
}

// Add binds an identifier to a label. The label is lowercased. Rebinding
// an existing ID or label is an error.
func (l *Lookup) Add(id int, label string) error {
	label = strings.ToLower(label)
	if existing, ok := l.byID[id]; ok {
		return fmt.Errorf("id %d already bound to %q", id, existing)
	}
	if existing, ok := l.byLabel[label]; ok {
		return fmt.Errorf("label %q already bound to id %d", label, existing)
	}
	l.byID[id] = label
	l.byLabel[label] = id
	return nil
}

// IDByLabel returns the identifier for a label, case-insensitively.
func (l *Lookup) IDByLabel(label string) (int, error) {
	id, ok := l.byLabel[strings.ToLower(label)]
	if !ok {
		return 0, fmt.Errorf("label %q: %w", label, ErrNotFound)
	}
	return id, nil
}

// LabelByID returns the label for an identifier.
func (l *Lookup) LabelByID(id int) (string, error) {
	label, ok := l.byID[id]
	if !ok {
		return "", fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return label, nil
}

// Len returns the number of entries in the table.
func (l *Lookup) Len() int {
	return len(l.byID)
}

// Resolver translates human-readable attribute values into remote numeric
// identifiers. Tables are fetched from the remote service on first use of
// their category and kept for the rest of the run.
type Resolver struct {
	client  *Client
	project string
	tables  map[string]*Lookup
}

// NewResolver creates a resolver scoped to the given project key.
func NewResolver(client *Client, projectKey string) *Resolver {
	return &Resolver{
		client:  client,
		project: projectKey,
		tables:  make(map[string]*Lookup),
	}
}

// lookupCategories names the attribute categories that resolve through a
// table. Field names outside this set pass through unresolved.
var lookupCategories = map[string]bool{
	"project":     true,
	"priority":    true,
	"issuetype":   true,
	"versions":    true,
	"fixversions": true,
	"components":  true,
	"resolutions": true,
}

// HasTable reports whether the (case-folded) field name names a lookup
// category.
func (r *Resolver) HasTable(field string) bool {
	return lookupCategories[strings.ToLower(field)]
}

// Table returns the lookup table for a category, fetching it from the
// remote service on first use.
func (r *Resolver) Table(ctx context.Context, category string) (*Lookup, error) {
	category = strings.ToLower(category)
	if !lookupCategories[category] {
		return nil, fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	if table, ok := r.tables[category]; ok {
		return table, nil
	}
	table, err := r.fetch(ctx, category)
	if err != nil {
		return nil, err
	}
	r.tables[category] = table
	if category == "versions" || category == "fixversions" {
		// Both categories are backed by the same project versions endpoint.
		other := "fixversions"
		if category == "fixversions" {
			other = "versions"
		}
		r.tables[other] = table
	}
	return table, nil
}

// Resolve maps a raw value to its remote identifier. For fields with a
// lookup category the table is consulted with the lowercased value; a miss
// returns ok=false and the caller skips the field. For fields without a
// table the lowercased raw value passes through. A non-nil error means the
// table could not be fetched at all.
func (r *Resolver) Resolve(ctx context.Context, field, raw string) (value string, ok bool, err error) {
	if !r.HasTable(field) {
		log.Debug().Str("field", field).Msg("no lookup table, passing value through")
		return strings.ToLower(raw), true, nil
	}
	table, err := r.Table(ctx, field)
	if err != nil {
		return "", false, err
	}
	id, err := table.IDByLabel(raw)
	if err != nil {
		log.Debug().Str("field", field).Str("value", raw).Msg("no id found, skipping field")
		return "", false, nil
	}
	return strconv.Itoa(id), true, nil
}

func (r *Resolver) fetch(ctx context.Context, category string) (*Lookup, error) {
	switch category {
	case "project":
		return r.fetchProject(ctx)
	case "issuetype":
		return r.fetchIssueTypes(ctx)
	case "versions", "fixversions":
		return r.fetchNamedList(ctx, "rest/api/latest/project/"+r.project+"/versions")
	case "components":
		return r.fetchNamedList(ctx, "rest/api/latest/project/"+r.project+"/components")
	case "resolutions":
		return r.fetchNamedList(ctx, "rest/api/latest/resolution")
	case "priority":
		return r.fetchNamedList(ctx, "rest/api/latest/priority")
	}
	return nil, fmt.Errorf("category %q: %w", category, ErrNotFound)
}

// fetchProject seeds the project table with the single configured project,
// keyed by its project key rather than display name.
func (r *Resolver) fetchProject(ctx context.Context) (*Lookup, error) {
	data, err := r.client.Do(ctx, http.MethodGet, "rest/api/latest/project/"+r.project, nil)
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", r.project, err)
	}
	var info ProjectInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing project: %w", err)
	}
	id, err := strconv.Atoi(info.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing project id %q: %w", info.ID, err)
	}
	table := NewLookup()
	if err := table.Add(id, r.project); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *Resolver) fetchIssueTypes(ctx context.Context) (*Lookup, error) {
	path := "rest/api/latest/issue/createmeta?projectKeys=" + r.project
	data, err := r.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting issue types for %s: %w", r.project, err)
	}
	var meta CreateMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing createmeta: %w", err)
	}
	if len(meta.Projects) == 0 {
		return nil, fmt.Errorf("project %s: %w", r.project, ErrNotFound)
	}
	return tableFromItems(meta.Projects[0].IssueTypes)
}

func (r *Resolver) fetchNamedList(ctx context.Context, path string) (*Lookup, error) {
	data, err := r.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", path, err)
	}
	var items []NamedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tableFromItems(items)
}

func tableFromItems(items []NamedItem) (*Lookup, error) {
	table := NewLookup()
	for _, item := range items {
		id, err := strconv.Atoi(item.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing id %q for %q: %w", item.ID, item.Name, err)
		}
		if err := table.Add(id, item.Name); err != nil {
			return nil, err
		}
	}
	return table, nil
}
