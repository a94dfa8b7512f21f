package domain

import (
	"strings"
	"testing"
	"time"
)

func TestSortTransactions_NewestFirstStable(t *testing.T) {
	list := []Transaction{
		{ID: "a", Date: 100},
		{ID: "b", Date: 300},
		{ID: "c", Date: 200},
		{ID: "d", Date: 200}, // ties keep insertion order
	}
	SortTransactions(list)

	want := []string{"b", "c", "d", "a"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestSortNotifications_UrgentThenUnreadThenNewest(t *testing.T) {
	list := []Notification{
		{ID: "read-new", Read: true, CreatedAt: 500},
		{ID: "unread-old", CreatedAt: 100},
		{ID: "urgent-read", Read: true, Urgent: true, CreatedAt: 50},
		{ID: "unread-new", CreatedAt: 400},
		{ID: "urgent-unread", Urgent: true, CreatedAt: 10},
	}
	SortNotifications(list)

	want := []string{"urgent-unread", "urgent-read", "unread-new", "unread-old", "read-new"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestNotificationExpired(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{"zero never expires", 0, false},
		{"future", now.Add(time.Hour).UnixMilli(), false},
		{"past", now.Add(-time.Hour).UnixMilli(), true},
		{"exactly now", now.UnixMilli(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := Notification{ExpiresAt: tc.expiresAt}
			if got := n.Expired(now); got != tc.want {
				t.Fatalf("Expired() = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestMergeCategories_CustomOverridesBuiltin(t *testing.T) {
	custom := []Category{
		{ID: "c1", Name: "food", Icon: "pizza", Color: "#000000"}, // overrides the built-in "Food"
		{ID: "c2", Name: "Crypto", Icon: "coins", Color: "#f7931a"},
	}

	merged := MergeCategories(custom)

	if len(merged) != len(BuiltinCategories)+1 {
		t.Fatalf("expected %d categories, got %d", len(BuiltinCategories)+1, len(merged))
	}

	var food *Category
	for i := range merged {
		if strings.EqualFold(merged[i].Name, "food") {
			if food != nil {
				t.Fatal("overridden built-in appears twice")
			}
			food = &merged[i]
		}
	}
	if food == nil {
		t.Fatal("food category missing")
	}
	if food.Icon != "pizza" || food.Color != "#000000" {
		t.Fatalf("override not applied: %+v", food)
	}

	last := merged[len(merged)-1]
	if last.Name != "Crypto" || last.Builtin {
		t.Fatalf("custom category missing or mislabeled: %+v", last)
	}
}

func TestMergeCategories_NoCustoms(t *testing.T) {
	merged := MergeCategories(nil)
	if len(merged) != len(BuiltinCategories) {
		t.Fatalf("expected the built-in set, got %d entries", len(merged))
	}
	for _, c := range merged {
		if !c.Builtin {
			t.Fatalf("category %s should be marked built-in", c.Name)
		}
	}
}
