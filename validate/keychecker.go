package validate

import (
	"context"
	"fmt"

	"github.com/dataflux/dataflux/value"
)

// KeyExistenceChecker probes a destination for which of a set of
// primary-key tuples already exist, backing KeyChecker's
// IntraBatchAndDestination policy.
type KeyExistenceChecker func(ctx context.Context, table string, keys []string) (map[string]bool, error)

// KeyCheckPolicy selects how KeyChecker enforces primary-key
// uniqueness.
type KeyCheckPolicy int

const (
	// IntraBatchOnly flags duplicate key tuples seen within the
	// current run, never consulting the destination.
	IntraBatchOnly KeyCheckPolicy = iota
	// IntraBatchAndDestination additionally buffers up to BatchSize
	// keys and probes the destination via KeyExistenceChecker.
	IntraBatchAndDestination
)

// KeyChecker tracks primary-key uniqueness intra-batch and, depending
// on policy, against the destination.
type KeyChecker struct {
	policy    KeyCheckPolicy
	batchSize int
	checker   KeyExistenceChecker

	seen    map[string]bool
	pending []string
	table   string

	findings []Finding
}

func NewKeyChecker(policy KeyCheckPolicy, batchSize int, checker KeyExistenceChecker) *KeyChecker {
	return &KeyChecker{
		policy:    policy,
		batchSize: batchSize,
		checker:   checker,
		seen:      make(map[string]bool),
	}
}

func keyString(values []value.Value) string {
	s := ""
	for i, v := range values {
		if i > 0 {
			s += "\x00"
		}
		str, _ := v.AsString()
		s += str
	}
	return s
}

// Check records one row's primary-key tuple for table, flagging an
// intra-batch duplicate immediately and buffering it for a
// destination probe under IntraBatchAndDestination.
func (k *KeyChecker) Check(ctx context.Context, table string, keyValues []value.Value) error {
	key := keyString(keyValues)
	if k.seen[key] {
		k.findings = append(k.findings, Finding{Code: CodeDuplicateKey, Severity: SeverityError, Table: table,
			Message: fmt.Sprintf("duplicate primary key %q within batch", key)})
		return nil
	}
	k.seen[key] = true

	if k.policy != IntraBatchAndDestination {
		return nil
	}

	k.table = table
	k.pending = append(k.pending, key)
	if len(k.pending) >= k.batchSize {
		return k.flush(ctx)
	}
	return nil
}

func (k *KeyChecker) flush(ctx context.Context) error {
	if len(k.pending) == 0 || k.checker == nil {
		k.pending = nil
		return nil
	}
	existing, err := k.checker(ctx, k.table, k.pending)
	if err != nil {
		return err
	}
	for _, key := range k.pending {
		if existing[key] {
			k.findings = append(k.findings, Finding{Code: CodeDuplicateKey, Severity: SeverityError, Table: k.table,
				Message: fmt.Sprintf("primary key %q already exists at destination", key)})
		}
	}
	k.pending = nil
	return nil
}

// Flush forces any buffered keys to be probed against the destination,
// called once at the end of a batch/run.
func (k *KeyChecker) Flush(ctx context.Context) error {
	return k.flush(ctx)
}

// Findings returns the deduplicated set of duplicate-key findings
// raised so far.
func (k *KeyChecker) Findings() []Finding {
	seen := make(map[string]bool, len(k.findings))
	var out []Finding
	for _, f := range k.findings {
		sig := string(f.Code) + "|" + f.Table + "|" + f.Message
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, f)
	}
	return out
}
