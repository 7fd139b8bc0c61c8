package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/econcore/engine/ledger"
)

var items = []string{
	"minecraft:diamond",
	"minecraft:diamond_block",
	"minecraft:iron_ingot",
	"minecraft:gold_ingot",
	"minecraft:netherite_ingot",
	"minecraft:ender_pearl",
}

func TestItem(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"minecraft:diamond", "minecraft:diamond"},
		{"MINECRAFT:DIAMOND", "minecraft:diamond"},
		{"diamond", "minecraft:diamond"},
		{"diamond_block", "minecraft:diamond_block"},
		{"iron ingot", "minecraft:iron_ingot"},
		{"pearl", "minecraft:ender_pearl"},
		{"netherite", "minecraft:netherite_ingot"},
	}
	for _, tt := range tests {
		got, err := Item(tt.name, items)
		if err != nil {
			t.Errorf("Item(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Item(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestItem_Ambiguous(t *testing.T) {
	_, err := Item("ingot", items)
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("err = %v, want AmbiguityError", err)
	}
	if len(amb.Candidates) != 3 {
		t.Errorf("candidates = %v, want 3", amb.Candidates)
	}
	if amb.Candidates[0] != "minecraft:gold_ingot" {
		t.Errorf("candidates not sorted: %v", amb.Candidates)
	}
}

func TestItem_NotFound(t *testing.T) {
	for _, name := range []string{"", "emerald", "dia"} {
		_, err := Item(name, items)
		if !errors.Is(err, ledger.ErrUnknownItem) {
			t.Errorf("Item(%q) err = %v, want ErrUnknownItem", name, err)
		}
	}
}

func TestShop(t *testing.T) {
	shops := []string{"general_store", "equipment_store", "rare_materials"}
	got, err := Shop("general", shops)
	if err != nil || got != "general_store" {
		t.Errorf("Shop(general) = %q, %v", got, err)
	}
	if _, err := Shop("store", shops); err == nil {
		t.Error("Shop(store) should be ambiguous")
	}
	if _, err := Shop("bakery", shops); !errors.Is(err, ledger.ErrUnknownShop) {
		t.Errorf("Shop(bakery) err = %v, want ErrUnknownShop", err)
	}
}
