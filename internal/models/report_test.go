package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusWorse(t *testing.T) {
	assert.Equal(t, StatusFail, StatusPass.Worse(StatusFail))
	assert.Equal(t, StatusFail, StatusFail.Worse(StatusWarn))
	assert.Equal(t, StatusWarn, StatusWarn.Worse(StatusPass))
	assert.Equal(t, StatusPass, StatusPass.Worse(StatusPass))
}

func TestRunReportStatusAndCounts(t *testing.T) {
	report := &RunReport{}
	assert.Equal(t, StatusPass, report.Status(), "empty run passes")

	report.Scenarios = []ScenarioResult{
		{Name: "a", Status: StatusPass},
		{Name: "b", Status: StatusWarn},
		{Name: "c", Status: StatusPass},
	}
	assert.Equal(t, StatusWarn, report.Status())

	report.Scenarios = append(report.Scenarios, ScenarioResult{Name: "d", Status: StatusFail})
	assert.Equal(t, StatusFail, report.Status())

	pass, warn, fail := report.Counts()
	assert.Equal(t, 2, pass)
	assert.Equal(t, 1, warn)
	assert.Equal(t, 1, fail)
}
