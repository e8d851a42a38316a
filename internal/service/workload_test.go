package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acadset/course-load-api/internal/models"
)

func TestCreditHours(t *testing.T) {
	// lecture 3, lab 3: the lab/tutorial component is 2.
	assert.InDelta(t, 5.0, CreditHours(3, 3, 0, false, false), 1e-9)
	assert.InDelta(t, 7.0, CreditHours(3, 3, 0, true, false), 1e-9)
	assert.InDelta(t, 7.0, CreditHours(3, 3, 0, false, true), 1e-9)
	// Both triggers compound.
	assert.InDelta(t, 9.0, CreditHours(3, 3, 0, true, true), 1e-9)
	// Tutorials count the same as labs.
	assert.InDelta(t, 5.0, CreditHours(3, 0, 3, false, false), 1e-9)
}

func TestManualWorkload(t *testing.T) {
	course := models.Course{Lecture: 2, Lab: 1, Tutorial: 1}

	assert.InDelta(t, 3.33, ManualWorkload(course, false), 1e-9)
	assert.InDelta(t, 4.67, ManualWorkload(course, true), 1e-9)

	// Class size never matters in the manual formula.
	course.NumberOfStudents = 200
	assert.InDelta(t, 3.33, ManualWorkload(course, false), 1e-9)
}

func TestOverloadWorkload(t *testing.T) {
	course := models.Course{Lecture: 3, Lab: 3, NumberOfStudents: 20}

	assert.InDelta(t, 5.0, OverloadWorkload(course, false), 1e-9)
	// Lab division doubles the whole credit hour, not just the lab component.
	assert.InDelta(t, 14.0, OverloadWorkload(course, true), 1e-9)

	course.NumberOfStudents = 30
	assert.InDelta(t, 7.0, OverloadWorkload(course, false), 1e-9)
	assert.InDelta(t, 18.0, OverloadWorkload(course, true), 1e-9)

	// The threshold is strict: exactly 25 students is not a large class.
	course.NumberOfStudents = 25
	assert.InDelta(t, 5.0, OverloadWorkload(course, false), 1e-9)
}

func TestExpectedLoad(t *testing.T) {
	assert.InDelta(t, 12.0, ExpectedLoad(0), 1e-9)
	assert.InDelta(t, 9.0, ExpectedLoad(3), 1e-9)
	assert.InDelta(t, 0.0, ExpectedLoad(12), 1e-9)
}

func TestOverloadBenefit(t *testing.T) {
	assert.Zero(t, OverloadBenefit(-2))
	assert.Zero(t, OverloadBenefit(0))
	assert.Zero(t, OverloadBenefit(3))
	assert.InDelta(t, 0.942, OverloadBenefit(4), 1e-9)
	assert.InDelta(t, 2.826, OverloadBenefit(6), 1e-9)

	// Benefit grows monotonically past the threshold.
	prev := OverloadBenefit(3)
	for overload := 3.5; overload <= 10; overload += 0.5 {
		next := OverloadBenefit(overload)
		assert.Greater(t, next, prev)
		prev = next
	}
}
