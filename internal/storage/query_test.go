package storage

import (
	"reflect"
	"testing"
	"time"

	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildMatch(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   core.Filter
		want bson.M
	}{
		{"empty", core.Filter{}, bson.M{}},
		{"kind only", core.Filter{Kind: core.Income}, bson.M{"type": "income"}},
		{"category only", core.Filter{Category: "Dining"}, bson.M{"category": "Dining"}},
		{
			"both bounds",
			core.Filter{Start: start, End: end},
			bson.M{"date": bson.M{"$gte": start, "$lte": end}},
		},
		{
			"start only",
			core.Filter{Start: start},
			bson.M{"date": bson.M{"$gte": start}},
		},
		{
			"end only",
			core.Filter{End: end},
			bson.M{"date": bson.M{"$lte": end}},
		},
		{
			"all fields",
			core.Filter{Kind: core.Expense, Category: "Groceries", Start: start, End: end},
			bson.M{
				"type":     "expense",
				"category": "Groceries",
				"date":     bson.M{"$gte": start, "$lte": end},
			},
		},
	}
	for _, tc := range cases {
		if got := BuildMatch(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: BuildMatch = %#v, want %#v", tc.name, got, tc.want)
		}
	}
}

func TestBuildMatchDeterministic(t *testing.T) {
	f := core.Filter{Kind: core.Income, Category: "Salary"}
	a := BuildMatch(f)
	b := BuildMatch(f)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same filter produced different predicates: %#v vs %#v", a, b)
	}
}
