// Package mongodb implements the repositories on MongoDB.
package mongodb

import (
	"context"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/bursar/core"
)

// Collections
const (
	classesCollection        = "classes"
	studentsCollection       = "students"
	teachersCollection       = "teachers"
	subjectsCollection       = "subjects"
	feesCollection           = "fees"
	familyFeesCollection     = "familyFees"
	salariesCollection       = "salaries"
	financeEntriesCollection = "financeEntries"
	examsCollection          = "exams"
)

var byCreation = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the server at uri and waits for it to be ready.
func Open(ctx context.Context, uri, name string) (*DB, error) {
	opts := options.Client().ApplyURI(uri).SetRegistry(newRegistry())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	db := &DB{client: client, db: client.Database(name)}
	if err = db.ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

// ping waits for the server to be ready. Waits 100ms longer between each attempt.
func (db *DB) ping(ctx context.Context) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "mongo ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "mongo ping timeout")
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Drop drops the whole database.
func (db *DB) Drop(ctx context.Context) error {
	return db.db.Drop(ctx)
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// EnsureIndexes creates the unique constraints and lookup indexes of every collection.
func (db *DB) EnsureIndexes(ctx context.Context, logger core.Logger) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	indexes := map[string][]mongo.IndexModel{
		studentsCollection: {
			{Keys: bson.D{{Key: "class", Value: 1}}},
		},
		feesCollection: {
			unique(bson.D{{Key: "student", Value: 1}, {Key: "month", Value: 1}, {Key: "year", Value: 1}}),
			{Keys: bson.D{{Key: "month", Value: 1}, {Key: "year", Value: 1}}},
		},
		familyFeesCollection: {
			unique(bson.D{{Key: "familyName", Value: 1}, {Key: "month", Value: 1}, {Key: "year", Value: 1}}),
			{Keys: bson.D{{Key: "students.student", Value: 1}}},
		},
		salariesCollection: {
			unique(bson.D{{Key: "teacher", Value: 1}, {Key: "month", Value: 1}, {Key: "year", Value: 1}}),
		},
		financeEntriesCollection: {
			{
				// one automatic entry per period
				Keys: bson.D{{Key: "month", Value: 1}, {Key: "year", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("automatic_period").
					SetPartialFilterExpression(bson.M{"automatic": true}),
			},
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		examsCollection: {
			unique(bson.D{
				{Key: "student", Value: 1},
				{Key: "subject", Value: 1},
				{Key: "examType", Value: 1},
				{Key: "academicYear", Value: 1},
			}),
		},
	}
	for coll, models := range indexes {
		names, err := db.collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
		logger.Info("ensured indexes", coll, names)
	}
	return nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// newRegistry stores decimals as Decimal128 so that $inc stays exact.
func newRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	return reg
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	d := val.Interface().(decimal.Decimal)
	dec, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return errors.Wrapf(err, "encoding decimal %s", d)
	}
	return vw.WriteDecimal128(dec)
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch vr.Type() {
	case bsontype.Decimal128:
		var dec primitive.Decimal128
		if dec, err = vr.ReadDecimal128(); err == nil {
			d, err = decimal.NewFromString(dec.String())
		}
	case bsontype.Double:
		var f float64
		if f, err = vr.ReadDouble(); err == nil {
			d = decimal.NewFromFloat(f)
		}
	case bsontype.Int32:
		var i int32
		if i, err = vr.ReadInt32(); err == nil {
			d = decimal.NewFromInt32(i)
		}
	case bsontype.Int64:
		var i int64
		if i, err = vr.ReadInt64(); err == nil {
			d = decimal.NewFromInt(i)
		}
	case bsontype.String:
		var s string
		if s, err = vr.ReadString(); err == nil {
			d, err = decimal.NewFromString(s)
		}
	case bsontype.Null:
		err = vr.ReadNull()
	default:
		return errors.Errorf("cannot decode %v into a decimal", vr.Type())
	}
	if err != nil {
		return errors.Wrap(err, "decoding decimal")
	}
	val.Set(reflect.ValueOf(d))
	return nil
}

func isNotFound(err error) bool {
	return errors.Cause(err) == mongo.ErrNoDocuments
}

// findAll decodes every document matching filter into results, a pointer to a slice.
func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, results interface{}) error {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(byCreation))
	if err != nil {
		return err
	}
	return cur.All(ctx, results)
}

// deleteByID returns notFound when no document has the id.
func deleteByID(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", coll.Name())
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
