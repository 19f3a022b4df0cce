// Package mongostore backs the document store with MongoDB. Each collection
// kind (e.g. students/*/enrollment) maps to one Mongo collection
// (students_enrollment); documents carry their full path as _id and their
// parent document path in _parent.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

const (
	idField     = "_id"
	parentField = "_parent"
)

// Store implements docstore.Store on a Mongo database.
type Store struct {
	db  *mongo.Database
	now func() time.Time
}

// New wraps a Mongo database handle.
func New(db *mongo.Database) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get loads the document at path.
func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	coll, _, err := s.collectionFor(path)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	if err := coll.FindOne(ctx, bson.M{idField: path}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find %s: %w", path, err)
	}
	return toDocument(path, raw), nil
}

// Set replaces the document at path, creating it when missing.
func (s *Store) Set(ctx context.Context, path string, data docstore.Data) error {
	coll, parent, err := s.collectionFor(path)
	if err != nil {
		return err
	}
	doc := bson.M{}
	for key, value := range docstore.Resolve(data, s.now()) {
		doc[key] = value
	}
	doc[idField] = path
	doc[parentField] = parent
	if _, err := coll.ReplaceOne(ctx, bson.M{idField: path}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongo replace %s: %w", path, err)
	}
	return nil
}

// Merge deep merges data into the document, creating it when missing.
func (s *Store) Merge(ctx context.Context, path string, data docstore.Data) error {
	coll, parent, err := s.collectionFor(path)
	if err != nil {
		return err
	}
	update := BuildUpdate(Flatten(data), s.now())
	update["$setOnInsert"] = bson.M{parentField: parent}
	if _, err := coll.UpdateOne(ctx, bson.M{idField: path}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongo merge %s: %w", path, err)
	}
	return nil
}

// Update patches an existing document.
func (s *Store) Update(ctx context.Context, path string, updates docstore.Data) error {
	coll, _, err := s.collectionFor(path)
	if err != nil {
		return err
	}
	update := BuildUpdate(updates, s.now())
	if len(update) == 0 {
		return nil
	}
	res, err := coll.UpdateOne(ctx, bson.M{idField: path}, update)
	if err != nil {
		return fmt.Errorf("mongo update %s: %w", path, err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Delete removes the document at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	coll, _, err := s.collectionFor(path)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteOne(ctx, bson.M{idField: path}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", path, err)
	}
	return nil
}

// List returns every document of collection.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.Query(ctx, collection)
}

// Query returns documents of collection matching the filters.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	if err := docstore.ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	coll := s.db.Collection(CollectionName(collection))
	filter := BuildFilter(docstore.ParentOf(collection), filters)

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: idField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []docstore.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
		}
		path, _ := raw[idField].(string)
		docs = append(docs, *toDocument(path, raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) collectionFor(path string) (*mongo.Collection, string, error) {
	collection, _, err := docstore.SplitDocPath(path)
	if err != nil {
		return nil, "", err
	}
	return s.db.Collection(CollectionName(collection)), docstore.ParentOf(collection), nil
}

// CollectionName maps a collection path to its Mongo collection by dropping
// the document ids: students/u1/enrollment -> students_enrollment.
func CollectionName(collection string) string {
	segments := strings.Split(strings.Trim(collection, "/"), "/")
	kinds := make([]string, 0, len(segments)/2+1)
	for i := 0; i < len(segments); i += 2 {
		kinds = append(kinds, segments[i])
	}
	return strings.Join(kinds, "_")
}

// BuildFilter scopes a query to the parent document and applies field filters.
// Mongo equality on an array field matches any element, which covers array-contains.
func BuildFilter(parent string, filters []docstore.Filter) bson.M {
	filter := bson.M{parentField: parent}
	for _, f := range filters {
		filter[f.Field] = f.Value
	}
	return filter
}

// BuildUpdate translates dotted docstore updates into Mongo update operators.
func BuildUpdate(updates docstore.Data, now time.Time) bson.M {
	set := bson.M{}
	unset := bson.M{}
	addToSet := bson.M{}
	pull := bson.M{}
	for field, value := range updates {
		switch v := value.(type) {
		case docstore.ArrayUnionValue:
			addToSet[field] = bson.M{"$each": v.Elements}
		case docstore.ArrayRemoveValue:
			pull[field] = bson.M{"$in": v.Elements}
		case map[string]interface{}:
			set[field] = docstore.Resolve(v, now)
		default:
			switch {
			case docstore.IsDeleteField(value):
				unset[field] = ""
			case docstore.IsServerTimestamp(value):
				set[field] = now
			default:
				set[field] = value
			}
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(addToSet) > 0 {
		update["$addToSet"] = addToSet
	}
	if len(pull) > 0 {
		update["$pull"] = pull
	}
	return update
}

// Flatten turns nested maps into dotted paths so Merge keeps sibling fields.
func Flatten(data docstore.Data) docstore.Data {
	out := docstore.Data{}
	flattenInto(out, "", data)
	return out
}

func flattenInto(out docstore.Data, prefix string, data docstore.Data) {
	for key, value := range data {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok && len(nested) > 0 {
			flattenInto(out, field, nested)
			continue
		}
		out[field] = value
	}
}

func toDocument(path string, raw bson.M) *docstore.Document {
	data := docstore.Data{}
	for key, value := range raw {
		if key == idField || key == parentField {
			continue
		}
		data[key] = Normalize(value)
	}
	_, id, _ := docstore.SplitDocPath(path)
	return &docstore.Document{Path: path, ID: id, Data: data}
}

// Normalize converts driver types into plain Go values.
func Normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = Normalize(item)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(v))
		for _, elem := range v {
			out[elem.Key] = Normalize(elem.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
	case primitive.DateTime:
		return v.Time().UTC()
	case int32:
		return int(v)
	default:
		return v
	}
}
