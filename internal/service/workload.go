package service

import (
	"math"

	"github.com/acadset/course-load-api/internal/models"
)

const (
	twoThirds = 2.0 / 3.0

	// standardFullLoad is the credit-hour load a position with no exemption
	// is expected to carry per semester.
	standardFullLoad = 12.0

	// overloadThreshold is the overload band carried without compensation;
	// hours beyond it accrue benefit at overloadRate per credit hour.
	overloadThreshold = 3.0
	overloadRate      = 0.942

	// largeClassSize triggers the lab/tutorial doubling on extension and
	// summer courses.
	largeClassSize = 25
)

// CreditHours computes the teaching load of a course from its credit
// structure. Each doubling trigger adds one extra lab/tutorial component, so
// the two can compound; the lecture component is never doubled here.
func CreditHours(lecture, lab, tutorial float64, labDivision, largeClass bool) float64 {
	labTut := twoThirds * (lab + tutorial)
	ch := lecture + labTut
	if labDivision {
		ch += labTut
	}
	if largeClass {
		ch += labTut
	}
	return ch
}

// ManualWorkload is the manual/common-course workload formula: lab division
// doubles only the lab/tutorial component, class size is ignored, and the
// result is rounded to two decimals.
func ManualWorkload(course models.Course, labDivision bool) float64 {
	return round2(CreditHours(course.Lecture, course.Lab, course.Tutorial, labDivision, false))
}

// OverloadWorkload is the extension/summer workload formula. Class size
// above largeClassSize doubles the lab/tutorial component, and lab division
// additionally doubles the whole credit hour. The two formulas intentionally
// diverge; do not unify them.
func OverloadWorkload(course models.Course, labDivision bool) float64 {
	ch := CreditHours(course.Lecture, course.Lab, course.Tutorial, labDivision, course.NumberOfStudents > largeClassSize)
	if labDivision {
		ch *= 2
	}
	return ch
}

// ExpectedLoad is the load an instructor owes after their position exemption.
func ExpectedLoad(exemption float64) float64 {
	return standardFullLoad - exemption
}

// OverloadBenefit converts overload hours into the compensation score the
// extension and summer allocators minimize. Zero within the threshold band.
func OverloadBenefit(overload float64) float64 {
	if overload <= overloadThreshold {
		return 0
	}
	return (overload - overloadThreshold) * overloadRate
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
