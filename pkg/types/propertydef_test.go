// Tests for PropertyDef structural identity and hashing.
package types

import "testing"

func TestPropertyDef_Equals(t *testing.T) {
	a := PropertyDef{Name: "age", Type: TypeInteger}
	b := PropertyDef{Name: "age", Type: TypeString, Nullable: true}
	c := PropertyDef{Name: "name", Type: TypeInteger}

	if !a.Equals(b) {
		t.Error("defs with equal names must be Equals regardless of other fields")
	}
	if a.Equals(c) {
		t.Error("defs with different names must not be Equals")
	}
	if a.FullyEquals(b) {
		t.Error("defs with different types must not be FullyEquals")
	}
	if !a.FullyEquals(PropertyDef{Name: "age", Type: TypeInteger}) {
		t.Error("field-identical defs must be FullyEquals")
	}
}

func TestPropertyDef_HashStable(t *testing.T) {
	def := PropertyDef{Name: "score", Type: TypeFloat, Nullable: true, HasDefault: true, Default: 0.5}
	if def.Hash() != def.Hash() {
		t.Error("hash must be deterministic")
	}

	same := PropertyDef{Name: "score", Type: TypeFloat, Nullable: true, HasDefault: true, Default: 0.5}
	if def.Hash() != same.Hash() {
		t.Error("structurally identical defs must hash identically")
	}
}

func TestPropertyDef_HashSensitivity(t *testing.T) {
	base := PropertyDef{Name: "score", Type: TypeFloat}
	variants := []PropertyDef{
		{Name: "scores", Type: TypeFloat},
		{Name: "score", Type: TypeInteger},
		{Name: "score", Type: TypeFloat, Nullable: true},
		{Name: "score", Type: TypeFloat, Removable: true},
		{Name: "score", Type: TypeFloat, Multivalued: true},
		{Name: "score", Type: TypeFloat, HasDefault: true, Default: 0.0},
	}
	for i, v := range variants {
		if base.Hash() == v.Hash() {
			t.Errorf("variant %d should hash differently from base", i)
		}
	}
}

func TestPropertyDef_DefaultValue(t *testing.T) {
	tests := []struct {
		name string
		def  PropertyDef
		want any
	}{
		{"declared default", PropertyDef{Name: "n", Type: TypeInteger, HasDefault: true, Default: int64(7)}, int64(7)},
		{"no default single", PropertyDef{Name: "n", Type: TypeInteger}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.DefaultValue(); got != tt.want {
				t.Errorf("DefaultValue() = %v, want %v", got, tt.want)
			}
		})
	}

	multi := PropertyDef{Name: "tags", Type: TypeString, Multivalued: true}
	got, ok := multi.DefaultValue().([]any)
	if !ok || len(got) != 0 {
		t.Errorf("multivalued DefaultValue() = %v, want empty []any", multi.DefaultValue())
	}
}
