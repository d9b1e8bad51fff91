// Package mongo translates query options to MongoDB find requests.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modernmen/collectiongen/query"
)

// IDField is the document key holding the record id.
const IDField = "_id"

// FindQuery is a translated find request for one page of documents.
type FindQuery struct {
	Collection string
	Filter     bson.D
	Sort       bson.D
	Skip       int64
	Limit      int64
}

// Options returns the driver find options.
func (q *FindQuery) Options() *options.FindOptions {
	o := options.Find().SetSkip(q.Skip).SetLimit(q.Limit)
	if len(q.Sort) > 0 {
		o.SetSort(q.Sort)
	}
	return o
}

// CountFilter returns the filter used to count every matching document.
func (q *FindQuery) CountFilter() bson.D {
	return q.Filter
}

// Run executes the query against db and decodes the matched documents.
func (q *FindQuery) Run(ctx context.Context, db *mongo.Database) ([]bson.M, error) {
	cur, err := db.Collection(q.Collection).Find(ctx, q.Filter, q.Options())
	if err != nil {
		return nil, fmt.Errorf("mongo: find %s: %w", q.Collection, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode %s: %w", q.Collection, err)
	}
	return docs, nil
}

// Translate builds the find request for opts. The options are normalized
// first, so an unknown operator fails with *query.UnsupportedOperatorError.
// Predicates on distinct fields form a flat filter; a repeated field moves
// every predicate under $and.
func Translate(collection string, opts query.Options) (*FindQuery, error) {
	if collection == "" {
		return nil, errors.New("mongo: empty collection name")
	}
	n, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	q := &FindQuery{
		Collection: collection,
		Filter:     bson.D{},
		Skip:       int64(n.Offset()),
		Limit:      int64(n.Limit()),
	}
	seen := make(map[string]bool)
	repeated := false
	for _, p := range n.Filter {
		e, err := FromPredicate(p)
		if err != nil {
			return nil, err
		}
		repeated = repeated || seen[e.Key]
		seen[e.Key] = true
		q.Filter = append(q.Filter, e)
	}
	if repeated {
		and := make(bson.A, len(q.Filter))
		for i, e := range q.Filter {
			and[i] = bson.D{e}
		}
		q.Filter = bson.D{{Key: "$and", Value: and}}
	}
	for _, o := range n.Sort {
		dir := 1
		if o.Dir == query.Desc {
			dir = -1
		}
		q.Sort = append(q.Sort, bson.E{Key: key(o.Field), Value: dir})
	}
	return q, nil
}

// FromPredicate converts a normalized predicate to a filter element.
func FromPredicate(p query.Predicate) (bson.E, error) {
	field := key(p.Field)
	cond := func(op string, v any) bson.E {
		return bson.E{Key: field, Value: bson.D{{Key: op, Value: v}}}
	}
	switch p.Op {
	case query.Eq:
		return cond("$eq", p.Value), nil
	case query.Ne:
		return cond("$ne", p.Value), nil
	case query.Gt:
		return cond("$gt", p.Value), nil
	case query.Gte:
		return cond("$gte", p.Value), nil
	case query.Lt:
		return cond("$lt", p.Value), nil
	case query.Lte:
		return cond("$lte", p.Value), nil
	case query.In, query.Nin:
		vs, ok := query.Values(p.Value)
		if !ok {
			return bson.E{}, &query.InvalidOptionError{Option: p.Field, Value: p.Value, Message: "expects a list"}
		}
		if p.Op == query.In {
			return cond("$in", bson.A(vs)), nil
		}
		return cond("$nin", bson.A(vs)), nil
	case query.Contains, query.NotContains, query.StartsWith, query.EndsWith:
		s, ok := p.Value.(string)
		if !ok {
			return bson.E{}, &query.InvalidOptionError{Option: p.Field, Value: p.Value, Message: "expects a string"}
		}
		lit := regexp.QuoteMeta(s)
		switch p.Op {
		case query.Contains:
			return cond("$regex", primitive.Regex{Pattern: lit, Options: "i"}), nil
		case query.NotContains:
			return cond("$not", primitive.Regex{Pattern: lit, Options: "i"}), nil
		case query.StartsWith:
			return cond("$regex", primitive.Regex{Pattern: "^" + lit}), nil
		default:
			return cond("$regex", primitive.Regex{Pattern: lit + "$"}), nil
		}
	case query.IsNull:
		return cond("$eq", nil), nil
	case query.NotNull:
		return cond("$ne", nil), nil
	case query.Between:
		vs, ok := query.Values(p.Value)
		if !ok || len(vs) != 2 {
			return bson.E{}, &query.InvalidOptionError{Option: p.Field, Value: p.Value, Message: "expects two bounds"}
		}
		return bson.E{Key: field, Value: bson.D{{Key: "$gte", Value: vs[0]}, {Key: "$lte", Value: vs[1]}}}, nil
	default:
		return bson.E{}, &query.UnsupportedOperatorError{Field: p.Field, Op: p.Op}
	}
}

// key maps the record id to the document key.
func key(field string) string {
	if field == "id" {
		return IDField
	}
	return field
}
