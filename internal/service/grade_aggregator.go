package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
)

// gradePlaces decimals kept on the final grade.
const gradePlaces = 2

// CalculateFinalGrade is the mean of the jury grades rounded half away from
// zero to two decimals. It is null while the jury is empty or anyone has
// not graded yet.
func CalculateFinalGrade(members []model.JuryMember) decimal.NullDecimal {
	if len(members) == 0 {
		return decimal.NullDecimal{}
	}
	sum := decimal.Zero
	for _, m := range members {
		if !m.HasGraded() {
			return decimal.NullDecimal{}
		}
		sum = sum.Add(m.Grade.Decimal)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(members)))).Round(gradePlaces)
	return decimal.NewNullDecimal(mean)
}

// IsFullyGraded every member of a non-empty jury has graded.
func IsFullyGraded(members []model.JuryMember) bool {
	return CalculateFinalGrade(members).Valid
}

// GradeAggregator reads the current jury state of a defense.
type GradeAggregator struct {
	jury repository.JuryMemberRepository
}

// NewGradeAggregator creates a GradeAggregator.
func NewGradeAggregator(jury repository.JuryMemberRepository) *GradeAggregator {
	return &GradeAggregator{jury: jury}
}

// CalculateFinalGrade loads the jury of defenseID and aggregates it.
func (g *GradeAggregator) CalculateFinalGrade(ctx context.Context, defenseID string) (decimal.NullDecimal, error) {
	members, err := g.jury.ListByDefense(ctx, defenseID)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return CalculateFinalGrade(members), nil
}

// IsFullyGraded see CalculateFinalGrade.
func (g *GradeAggregator) IsFullyGraded(ctx context.Context, defenseID string) (bool, error) {
	grade, err := g.CalculateFinalGrade(ctx, defenseID)
	if err != nil {
		return false, err
	}
	return grade.Valid, nil
}
