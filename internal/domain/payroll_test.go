package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	minSalary = decimal.NewFromInt(1)
	maxSalary = decimal.NewFromInt(1_000_000)
)

func TestEmployeeValidate(t *testing.T) {
	employee := &Employee{
		ID:         uuid.New(),
		Employer:   "acme",
		Name:       "Ada",
		PayoutRef:  "0xabc",
		Salary:     decimal.NewFromInt(5000),
		PaymentDay: 28,
	}
	require.NoError(t, employee.Validate(minSalary, maxSalary))

	tooHigh := *employee
	tooHigh.Salary = maxSalary.Add(decimal.NewFromInt(1))
	assert.ErrorIs(t, tooHigh.Validate(minSalary, maxSalary), ErrInvalidAmount)

	badDay := *employee
	badDay.PaymentDay = 32
	assert.ErrorIs(t, badDay.Validate(minSalary, maxSalary), ErrInvalidAmount)

	badDay.PaymentDay = 0
	assert.ErrorIs(t, badDay.Validate(minSalary, maxSalary), ErrInvalidAmount)

	noRef := *employee
	noRef.PayoutRef = ""
	assert.ErrorIs(t, noRef.Validate(minSalary, maxSalary), ErrInvalidAmount)
}

func TestNewPayrollBatch_SnapshotsActiveOnly(t *testing.T) {
	now := time.Now()
	roster := []*Employee{
		{ID: uuid.New(), Name: "Ada", Salary: decimal.NewFromInt(3000), Active: true},
		{ID: uuid.New(), Name: "Bob", Salary: decimal.NewFromInt(2000), Active: false},
		{ID: uuid.New(), Name: "Cleo", Salary: decimal.NewFromInt(4000), Active: true},
	}

	batch := NewPayrollBatch("acme", now.Add(24*time.Hour), roster, now)

	require.Len(t, batch.Lines, 2)
	assert.True(t, batch.TotalAmount.Equal(decimal.NewFromInt(7000)))
	assert.False(t, batch.Terminal())
}

func TestPayrollBatchTerminal(t *testing.T) {
	batch := &PayrollBatch{}
	assert.False(t, batch.Terminal())
	batch.Failed = true
	assert.True(t, batch.Terminal())
	batch.Failed = false
	batch.Processed = true
	assert.True(t, batch.Terminal())
}
