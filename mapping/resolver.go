// Package mapping implements the field-rename and computed-field
// bookkeeping a pipeline's transformation stage consults while
// projecting source rows into destination shape, plus the
// cross-entity reference index the expr package's evaluator and type
// inference consult through the expr.ForeignFieldResolver interface.
package mapping

import (
	"strings"

	"golang.org/x/exp/maps"
)

// NameResolver is a bidirectional, case-insensitive name mapping
// between a source identifier and its destination counterpart.
type NameResolver struct {
	sourceToTarget map[string]string
	targetToSource map[string]string
}

// NewNameResolver builds a resolver from a source-name -> target-name
// map; both directions are normalized to lowercase for lookup.
func NewNameResolver(m map[string]string) NameResolver {
	r := NameResolver{
		sourceToTarget: make(map[string]string, len(m)),
		targetToSource: make(map[string]string, len(m)),
	}
	for k, v := range m {
		kl, vl := strings.ToLower(k), strings.ToLower(v)
		r.sourceToTarget[kl] = vl
		r.targetToSource[vl] = kl
	}
	return r
}

// Resolve maps a source name to its destination name, or returns name
// unchanged if it has no mapping.
func (r NameResolver) Resolve(name string) string {
	if v, ok := r.sourceToTarget[strings.ToLower(name)]; ok {
		return v
	}
	return name
}

// ReverseResolve maps a destination name back to its source name, or
// returns name unchanged if it has no mapping.
func (r NameResolver) ReverseResolve(name string) string {
	if v, ok := r.targetToSource[strings.ToLower(name)]; ok {
		return v
	}
	return name
}

func (r NameResolver) IsEmpty() bool {
	return len(r.sourceToTarget) == 0 && len(r.targetToSource) == 0
}

func (r NameResolver) ContainsSource(name string) bool {
	_, ok := r.sourceToTarget[strings.ToLower(name)]
	return ok
}

func (r NameResolver) ContainsTarget(name string) bool {
	_, ok := r.targetToSource[strings.ToLower(name)]
	return ok
}

// ForwardMap returns a copy of the source->target mapping.
func (r NameResolver) ForwardMap() map[string]string {
	out := make(map[string]string, len(r.sourceToTarget))
	for k, v := range r.sourceToTarget {
		out[k] = v
	}
	return out
}

// SourceNames returns the resolver's known source-side entity names.
func (r NameResolver) SourceNames() []string {
	return maps.Keys(r.sourceToTarget)
}

// EntityNameResolver builds the table/file/API entity-name resolver
// for a pipeline: its primary source entity maps to its destination
// entity, and each join alias maps to the joined table it stands for.
func EntityNameResolver(sourceEntity, destEntity string, joinAliasToTable map[string]string) NameResolver {
	m := map[string]string{strings.ToLower(sourceEntity): strings.ToLower(destEntity)}
	for alias, table := range joinAliasToTable {
		m[strings.ToLower(alias)] = strings.ToLower(table)
	}
	return NewNameResolver(m)
}
