package testutil

import "testing"

// Given, When and Then name subtests after scenario steps so a failing run
// reads like the scenario it broke.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}

// Step runs fn as a plain numbered step of an ordered scenario. Unlike
// Given/When/Then it stops the scenario on the first failing step.
func Step(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(desc, fn) {
		t.FailNow()
	}
}
