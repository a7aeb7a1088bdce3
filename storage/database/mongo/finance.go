package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/period"
)

type financeRepository struct {
	entries *mongo.Collection
}

func NewFinanceRepository(db *DB) finance.Repository {
	return &financeRepository{entries: db.collection(financeEntriesCollection)}
}

func (repo *financeRepository) CreateEntry(ctx context.Context, entry finance.Entry) (finance.Entry, error) {
	if _, err := repo.entries.InsertOne(ctx, entry); err != nil {
		return finance.Entry{}, errors.Wrap(err, "inserting finance entry")
	}
	return entry, nil
}

func (repo *financeRepository) GetEntry(ctx context.Context, id string) (finance.Entry, error) {
	var entry finance.Entry
	if err := repo.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		if isNotFound(err) {
			return finance.Entry{}, finance.ErrNotFound
		}
		return finance.Entry{}, errors.Wrap(err, "finding finance entry")
	}
	return entry, nil
}

func (repo *financeRepository) QueryEntries(ctx context.Context, filter finance.QueryFilter) ([]finance.Entry, error) {
	f := bson.M{}
	if filter.Month != 0 {
		f["month"] = filter.Month
	}
	if filter.Year != 0 {
		f["year"] = filter.Year
	}
	if filter.Automatic != nil {
		f["automatic"] = *filter.Automatic
	}
	date := bson.M{}
	if !filter.DateFrom.IsZero() {
		date["$gte"] = filter.DateFrom.UTC()
	}
	if !filter.DateTo.IsZero() {
		date["$lt"] = filter.DateTo.UTC()
	}
	if len(date) > 0 {
		f["date"] = date
	}

	entries := make([]finance.Entry, 0)
	if err := findAll(ctx, repo.entries, f, &entries); err != nil {
		return nil, errors.Wrap(err, "finding finance entries")
	}
	return entries, nil
}

func (repo *financeRepository) DeleteEntry(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.entries, id, finance.ErrNotFound)
}

// AddToPeriodEntry increments the automatic entry of key with $inc, upserting seed when given.
func (repo *financeRepository) AddToPeriodEntry(ctx context.Context, key period.Key, delta finance.Delta, seed *finance.Entry) (finance.Entry, error) {
	filter := bson.M{"automatic": true, "month": key.Month, "year": key.Year}
	update := bson.M{
		"$inc": bson.M{
			"income":          delta.Income,
			"expenses":        delta.Expenses,
			"debt":            delta.Debt,
			"paidFeesCount":   delta.PaidFeesCount,
			"unpaidFeesCount": delta.UnpaidFeesCount,
		},
		"$set": bson.M{"updatedAt": core.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if seed != nil {
		update["$setOnInsert"] = bson.M{
			"_id":       seed.ID,
			"monthName": seed.MonthName,
			"createdBy": seed.CreatedBy,
			"date":      seed.Date,
			"createdAt": seed.CreatedAt,
		}
		opts.SetUpsert(true)
	}

	var entry finance.Entry
	err := repo.entries.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	if seed != nil && mongo.IsDuplicateKeyError(err) {
		// lost a concurrent upsert; the entry now exists
		err = repo.entries.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	}
	if err != nil {
		if isNotFound(err) {
			return finance.Entry{}, finance.ErrNotFound
		}
		return finance.Entry{}, errors.Wrap(err, "updating automatic finance entry")
	}
	return entry, nil
}
