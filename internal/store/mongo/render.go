package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

// renderFilter translates the conditions of q into a $match document.
func renderFilter(q *query.StoreQuery) bson.D {
	filter := bson.D{}
	if q.Text != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: q.Text}}})
	}
	for _, p := range q.Predicates {
		filter = append(filter, renderPredicate(p))
	}
	if len(q.AnyOf) > 0 {
		or := bson.A{}
		for _, p := range q.AnyOf {
			or = append(or, bson.D{renderPredicate(p)})
		}
		filter = append(filter, bson.E{Key: "$or", Value: or})
	}
	return filter
}

func renderPredicate(p query.Predicate) bson.E {
	switch p.Op {
	case query.OpIn:
		return bson.E{Key: p.Field, Value: bson.D{{Key: "$in", Value: bson.A(p.Values)}}}
	case query.OpRange:
		bounds := bson.D{}
		if p.Min != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *p.Min})
		}
		if p.Max != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *p.Max})
		}
		return bson.E{Key: p.Field, Value: bounds}
	case query.OpContains:
		fragment := ""
		if len(p.Values) > 0 {
			fragment, _ = p.Values[0].(string)
		}
		return bson.E{Key: p.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(fragment), Options: "i"}}
	default:
		var v any
		if len(p.Values) > 0 {
			v = p.Values[0]
		}
		return bson.E{Key: p.Field, Value: v}
	}
}

func renderSort(keys []query.SortKey) bson.D {
	sort := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: k.Field, Value: dir})
	}
	return sort
}

// renderPipeline builds the aggregation used by Find. A text query adds the
// text score as the score field so it can be sorted on and returned.
func renderPipeline(q *query.StoreQuery) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: renderFilter(q)}},
	}
	if q.Text != "" {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.D{
			{Key: domain.FieldScore, Value: bson.D{{Key: "$meta", Value: "textScore"}}},
		}}})
	}
	if len(q.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: renderSort(q.Sort)}})
	}
	if q.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Skip}})
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}
	return pipeline
}

// groupCountPipeline counts records per non-empty value of field.
func groupCountPipeline(field string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$exists", Value: true}, {Key: "$nin", Value: bson.A{nil, ""}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

// minMaxPipeline computes the bounds of a numeric field.
func minMaxPipeline(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "min", Value: bson.D{{Key: "$min", Value: "$" + field}}},
			{Key: "max", Value: bson.D{{Key: "$max", Value: "$" + field}}},
		}}},
	}
}
