package booking

import (
	"context"

	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
)

var (
	ReferenceLocations = []Location{
		{Name: "West Charleston", Address: "6375 W. Charleston Blvd., Las Vegas, NV 89146"},
		{Name: "North Las Vegas", Address: "3200 E. Cheyenne Ave., North Las Vegas, NV 89030"},
		{Name: "Henderson", Address: "700 College Dr., Henderson, NV 89002"},
	}

	ReferenceExams = []string{"PHIL 114", "MATH 181", "ACC 201", "CS 202", "HIST 101", "PSY 101"}
)

// SeedReferenceData creates the missing reference locations & exams. Existing rows are left untouched.
func (svc *service) SeedReferenceData(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	err := core.RunInTx(ctx, svc.db, nil, func(tx core.DBTransactor) error {
		for _, loc := range ReferenceLocations {
			created, err := svc.repo.CreateLocationIfNotExist(ctx, loc, tx)
			if err != nil {
				return errors.Wrapf(err, "creating location %q", loc.Name)
			}
			if created {
				res.Locations++
			}
		}
		for _, name := range ReferenceExams {
			created, err := svc.repo.CreateExamIfNotExist(ctx, name, tx)
			if err != nil {
				return errors.Wrapf(err, "creating exam %q", name)
			}
			if created {
				res.Exams++
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, errors.Wrap(err, "seeding reference data")
	}
	return res, nil
}
