package records

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDataset() Dataset {
	return Dataset{
		Bonding: []BondingRecord{
			{CenterCode: "C01", Percentage: 60},
			{CenterCode: "C01-OLD", Percentage: 10},
			{CenterCode: "C02", Percentage: 30},
		},
		Indents: []IndentRecord{
			{CenterCode: "C01-OLD", IndentDate: day("2024-03-01"), Quantity: 100},
			{CenterCode: "C02", IndentDate: day("2024-03-02"), Quantity: 50},
		},
		Purchases: []PurchaseRecord{
			{CenterCode: "C01-OLD", PurchaseDate: day("2024-03-02"), IndentDate: day("2024-03-01"), Quantity: 90},
			{CenterCode: "C09", PurchaseDate: day("2024-03-03"), IndentDate: day("2024-03-02"), Quantity: 5},
		},
		Mapping: NewCenterMapping(map[string]string{"C01-OLD": "C01"}),
	}
}

func TestCenterMapping_Resolve(t *testing.T) {
	m := NewCenterMapping(map[string]string{"A1": "A", "B": "B", "": "X", "Z": ""})

	tests := []struct {
		code string
		want string
	}{
		{"A1", "A"},
		{"A", "A"},
		{"B", "B"},
		{"UNKNOWN", "UNKNOWN"},
		{"", ""},
		{"Z", "Z"},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.code); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
	if m.Len() != 1 {
		t.Errorf("expected identity and empty pairs to be dropped, got %d entries", m.Len())
	}

	var zero CenterMapping
	if zero.Resolve("Q") != "Q" {
		t.Error("zero mapping must be the identity")
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	ds := sampleDataset()
	before := ds.Indents[0].CenterCode

	norm := ds.Normalize()

	if ds.Indents[0].CenterCode != before {
		t.Fatalf("input record mutated: %s", ds.Indents[0].CenterCode)
	}
	if norm.Indents[0].CenterCode != "C01" {
		t.Errorf("expected mapped code C01, got %s", norm.Indents[0].CenterCode)
	}
	if norm.Bonding[1].CenterCode != "C01" {
		t.Errorf("expected bonding alias to map to C01, got %s", norm.Bonding[1].CenterCode)
	}
	if norm.Purchases[1].CenterCode != "C09" {
		t.Errorf("unmapped code must pass through, got %s", norm.Purchases[1].CenterCode)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := sampleDataset().Normalize()
	twice := once.Normalize()

	if !reflect.DeepEqual(once.Bonding, twice.Bonding) ||
		!reflect.DeepEqual(once.Indents, twice.Indents) ||
		!reflect.DeepEqual(once.Purchases, twice.Purchases) {
		t.Error("normalizing an already-normalized dataset changed it")
	}
}

func TestCenterMapping_ChainsResolveToFinalTarget(t *testing.T) {
	m := NewCenterMapping(map[string]string{"A3": "A2", "A2": "A1", "A1": "A"})
	for _, code := range []string{"A3", "A2", "A1"} {
		if got := m.Resolve(code); got != "A" {
			t.Errorf("Resolve(%s) = %s, want A", code, got)
		}
	}

	recs := []IndentRecord{{CenterCode: "A3", IndentDate: day("2024-03-01"), Quantity: 10}}
	once := NormalizeIndents(m, recs)
	twice := NormalizeIndents(m, once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalizing an already-normalized set changed it: once=%v twice=%v", once, twice)
	}
}

func TestCycles(t *testing.T) {
	pairs := map[string]string{"X": "Y", "Y": "X", "P": "Q", "OLD": "X"}
	got := Cycles(pairs)
	if !reflect.DeepEqual(got, []string{"OLD", "X", "Y"}) {
		t.Errorf("Cycles = %v, want [OLD X Y]", got)
	}

	m := NewCenterMapping(pairs)
	if m.Resolve("X") != "X" || m.Resolve("P") != "Q" {
		t.Errorf("cyclic sources must stay unmapped, acyclic ones resolved: %v", m.Pairs())
	}
	if len(Cycles(map[string]string{"A1": "A", "A2": "A1"})) != 0 {
		t.Error("a chain ending in an unmapped code is not a cycle")
	}
}

func TestCenterMapping_JSON(t *testing.T) {
	m := NewCenterMapping(map[string]string{"X1": "X"})
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var back CenterMapping
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Resolve("X1") != "X" {
		t.Errorf("mapping lost across JSON, got %s", back.Resolve("X1"))
	}
}

func TestDataset_Validate(t *testing.T) {
	if err := sampleDataset().Validate(); err != nil {
		t.Fatalf("expected sample dataset to be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Dataset)
		expect string
	}{
		{"empty bonding code", func(d *Dataset) { d.Bonding[0].CenterCode = " " }, "center code is empty"},
		{"bonding over 100", func(d *Dataset) { d.Bonding[0].Percentage = 120 }, "outside 0-100"},
		{"negative indent", func(d *Dataset) { d.Indents[0].Quantity = -1 }, "non-negative"},
		{"NaN purchase", func(d *Dataset) { d.Purchases[0].Quantity = math.NaN() }, "non-negative"},
		{"missing indent date", func(d *Dataset) { d.Indents[1].IndentDate = time.Time{} }, "indent date is missing"},
		{"missing purchase date", func(d *Dataset) { d.Purchases[0].PurchaseDate = time.Time{} }, "purchase date is missing"},
		{"negative po count", func(d *Dataset) { d.Indents[0].POCount = -2 }, "purchase-order count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := sampleDataset()
			tt.mutate(&ds)
			err := ds.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.expect) {
				t.Errorf("expected error to mention %q, got %q", tt.expect, err.Error())
			}
		})
	}
}

func TestDataset_Summary(t *testing.T) {
	s := sampleDataset().Summary()

	if s.BondingCenters != 2 {
		t.Errorf("expected 2 bonded centers after mapping, got %d", s.BondingCenters)
	}
	if s.HistoryCenters != 3 {
		t.Errorf("expected 3 history centers (C01, C02, C09), got %d", s.HistoryCenters)
	}
	if s.BondingTotal != 100 {
		t.Errorf("expected bonding total 100, got %v", s.BondingTotal)
	}
	if !s.FirstIndentDate.Equal(day("2024-03-01")) || !s.LastIndentDate.Equal(day("2024-03-02")) {
		t.Errorf("unexpected indent range %v..%v", s.FirstIndentDate, s.LastIndentDate)
	}
}
