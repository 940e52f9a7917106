package storage

import (
	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/bson"
)

// BuildMatch translates a filter set into a Mongo match predicate. Absent
// fields stay unconstrained; date bounds are inclusive on either side. Pure
// translation only — validation happens in the handler layer, and the same
// predicate feeds the list, summary, and breakdown queries.
func BuildMatch(f core.Filter) bson.M {
	match := bson.M{}
	if f.Kind != "" {
		match["type"] = string(f.Kind)
	}
	if f.Category != "" {
		match["category"] = string(f.Category)
	}
	switch {
	case !f.Start.IsZero() && !f.End.IsZero():
		match["date"] = bson.M{"$gte": f.Start, "$lte": f.End}
	case !f.Start.IsZero():
		match["date"] = bson.M{"$gte": f.Start}
	case !f.End.IsZero():
		match["date"] = bson.M{"$lte": f.End}
	}
	return match
}
