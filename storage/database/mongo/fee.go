package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/bursar/core/fee"
)

type feeRepository struct {
	fees *mongo.Collection
}

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{fees: db.collection(feesCollection)}
}

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	if _, err := repo.fees.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fee.Fee{}, fee.ErrDuplicate
		}
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return f, nil
}

func (repo *feeRepository) GetFee(ctx context.Context, id string) (fee.Fee, error) {
	var f fee.Fee
	if err := repo.fees.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		if isNotFound(err) {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "finding fee")
	}
	return f, nil
}

func (repo *feeRepository) QueryFees(ctx context.Context, filter fee.QueryFilter) ([]fee.Fee, error) {
	f := bson.M{}
	if filter.Student != "" {
		f["student"] = filter.Student
	}
	if filter.Class != "" {
		f["class"] = filter.Class
	}
	if filter.Month != 0 {
		f["month"] = filter.Month
	}
	if filter.Year != 0 {
		f["year"] = filter.Year
	}
	if filter.Paid != nil {
		f["paid"] = *filter.Paid
	}

	fees := make([]fee.Fee, 0)
	if err := findAll(ctx, repo.fees, f, &fees); err != nil {
		return nil, errors.Wrap(err, "finding fees")
	}
	return fees, nil
}

func (repo *feeRepository) UpdateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	res, err := repo.fees.UpdateOne(ctx, bson.M{"_id": f.ID}, bson.M{"$set": bson.M{
		"paid":      f.Paid,
		"paidDate":  f.PaidDate,
		"note":      f.Note,
		"updatedAt": f.UpdatedAt,
	}})
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "updating fee")
	}
	if res.MatchedCount == 0 {
		return fee.Fee{}, fee.ErrNotFound
	}
	return repo.GetFee(ctx, f.ID)
}

func (repo *feeRepository) DeleteFee(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.fees, id, fee.ErrNotFound)
}
