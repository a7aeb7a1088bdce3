package mongodb

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/bursar/core/familyfee"
)

type familyFeeRepository struct {
	familyFees *mongo.Collection
}

func NewFamilyFeeRepository(db *DB) familyfee.Repository {
	return &familyFeeRepository{familyFees: db.collection(familyFeesCollection)}
}

func (repo *familyFeeRepository) CreateFamilyFee(ctx context.Context, ff familyfee.FamilyFee) (familyfee.FamilyFee, error) {
	if _, err := repo.familyFees.InsertOne(ctx, ff); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return familyfee.FamilyFee{}, familyfee.ErrDuplicate
		}
		return familyfee.FamilyFee{}, errors.Wrap(err, "inserting family fee")
	}
	return ff, nil
}

func (repo *familyFeeRepository) GetFamilyFee(ctx context.Context, id string) (familyfee.FamilyFee, error) {
	var ff familyfee.FamilyFee
	if err := repo.familyFees.FindOne(ctx, bson.M{"_id": id}).Decode(&ff); err != nil {
		if isNotFound(err) {
			return familyfee.FamilyFee{}, familyfee.ErrNotFound
		}
		return familyfee.FamilyFee{}, errors.Wrap(err, "finding family fee")
	}
	return ff, nil
}

func (repo *familyFeeRepository) QueryFamilyFees(ctx context.Context, filter familyfee.QueryFilter) ([]familyfee.FamilyFee, error) {
	f := bson.M{}
	if filter.FamilyName != "" {
		f["familyName"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.FamilyName) + "$", Options: "i"}
	}
	if filter.Student != "" {
		f["students.student"] = filter.Student
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

	ffs := make([]familyfee.FamilyFee, 0)
	if err := findAll(ctx, repo.familyFees, f, &ffs); err != nil {
		return nil, errors.Wrap(err, "finding family fees")
	}
	return ffs, nil
}

func (repo *familyFeeRepository) UpdateFamilyFee(ctx context.Context, ff familyfee.FamilyFee) (familyfee.FamilyFee, error) {
	res, err := repo.familyFees.UpdateOne(ctx, bson.M{"_id": ff.ID}, bson.M{"$set": bson.M{
		"paidAmount":    ff.PaidAmount,
		"paid":          ff.Paid,
		"paidDate":      ff.PaidDate,
		"paymentMethod": ff.PaymentMethod,
		"note":          ff.Note,
		"updatedAt":     ff.UpdatedAt,
	}})
	if err != nil {
		return familyfee.FamilyFee{}, errors.Wrap(err, "updating family fee")
	}
	if res.MatchedCount == 0 {
		return familyfee.FamilyFee{}, familyfee.ErrNotFound
	}
	return repo.GetFamilyFee(ctx, ff.ID)
}

func (repo *familyFeeRepository) DeleteFamilyFee(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.familyFees, id, familyfee.ErrNotFound)
}
