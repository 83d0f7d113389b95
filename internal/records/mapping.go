package records

import (
	"encoding/json"
	"sort"
)

// CenterMapping consolidates aliased or legacy center codes onto canonical codes.
// It is a read-only value; the zero value is the identity mapping.
type CenterMapping struct {
	targets map[string]string
}

// NewCenterMapping copies the given source -> target pairs, following chains so every
// source points at its final target. Identity pairs and empty targets are dropped, as are
// sources caught in a cycle (see Cycles).
func NewCenterMapping(pairs map[string]string) CenterMapping {
	direct := make(map[string]string, len(pairs))
	for src, dst := range pairs {
		if src == "" || dst == "" || src == dst {
			continue
		}
		direct[src] = dst
	}

	targets := make(map[string]string, len(direct))
	for src := range direct {
		if dst, ok := follow(direct, src); ok {
			targets[src] = dst
		}
	}
	return CenterMapping{targets: targets}
}

// follow walks src through direct until it reaches an unmapped code.
// It reports false when the walk revisits a code.
func follow(direct map[string]string, src string) (string, bool) {
	seen := map[string]bool{src: true}
	code := direct[src]
	for {
		next, ok := direct[code]
		if !ok {
			return code, true
		}
		if seen[code] {
			return "", false
		}
		seen[code] = true
		code = next
	}
}

// Cycles returns the source codes in pairs whose chain never reaches an unmapped code.
func Cycles(pairs map[string]string) []string {
	direct := make(map[string]string, len(pairs))
	for src, dst := range pairs {
		if src != "" && dst != "" && src != dst {
			direct[src] = dst
		}
	}
	var cyclic []string
	for src := range direct {
		if _, ok := follow(direct, src); !ok {
			cyclic = append(cyclic, src)
		}
	}
	sort.Strings(cyclic)
	return cyclic
}

// Resolve returns the canonical code for code, or code itself when it is not mapped.
func (m CenterMapping) Resolve(code string) string {
	if dst, ok := m.targets[code]; ok {
		return dst
	}
	return code
}

// Len returns the number of mapped source codes.
func (m CenterMapping) Len() int {
	return len(m.targets)
}

// Pairs returns a copy of the mapping table.
func (m CenterMapping) Pairs() map[string]string {
	out := make(map[string]string, len(m.targets))
	for k, v := range m.targets {
		out[k] = v
	}
	return out
}

func (m CenterMapping) MarshalJSON() ([]byte, error) {
	if m.targets == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.targets)
}

func (m *CenterMapping) UnmarshalJSON(data []byte) error {
	var pairs map[string]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	*m = NewCenterMapping(pairs)
	return nil
}

// NormalizeBonding applies the mapping to bonding records.
func NormalizeBonding(m CenterMapping, recs []BondingRecord) []BondingRecord {
	out := make([]BondingRecord, len(recs))
	for i, r := range recs {
		r.CenterCode = m.Resolve(r.CenterCode)
		out[i] = r
	}
	return out
}

// NormalizeIndents applies the mapping to indent records.
func NormalizeIndents(m CenterMapping, recs []IndentRecord) []IndentRecord {
	out := make([]IndentRecord, len(recs))
	for i, r := range recs {
		r.CenterCode = m.Resolve(r.CenterCode)
		out[i] = r
	}
	return out
}

// NormalizePurchases applies the mapping to purchase records.
func NormalizePurchases(m CenterMapping, recs []PurchaseRecord) []PurchaseRecord {
	out := make([]PurchaseRecord, len(recs))
	for i, r := range recs {
		r.CenterCode = m.Resolve(r.CenterCode)
		out[i] = r
	}
	return out
}
