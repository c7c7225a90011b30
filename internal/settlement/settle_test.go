package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSettleSoloNoCommission(t *testing.T) {
	riskTaker := uuid.New()
	terms := Terms{RiskTakerID: riskTaker}
	entries := []Entry{
		{ParticipantID: riskTaker, PrincipalShare: 1000, InterestRate: 20},
	}

	settled := Settle(terms, entries)

	assert.Len(t, settled, 1)
	assert.InDelta(t, 1000, settled[0].PrincipalShare, AmountTolerance)
	assert.InDelta(t, 200, settled[0].ActualInterest, AmountTolerance)
	assert.Zero(t, settled[0].CommissionDeducted)
	assert.InDelta(t, 200, settled[0].InterestAfterCommission, AmountTolerance)
	assert.True(t, settled[0].IsRiskTaker)
}

func TestSettleSplitNoCommission(t *testing.T) {
	terms := Terms{RiskTakerID: uuid.New()}
	entries := []Entry{
		{ParticipantID: uuid.New(), PrincipalShare: 600, InterestRate: 20},
		{ParticipantID: uuid.New(), PrincipalShare: 400, InterestRate: 20},
	}

	settled := Settle(terms, entries)

	assert.InDelta(t, 120, settled[0].ActualInterest, AmountTolerance)
	assert.InDelta(t, 80, settled[1].ActualInterest, AmountTolerance)
	for _, s := range settled {
		assert.Zero(t, s.CommissionDeducted)
		assert.Equal(t, s.ActualInterest, s.InterestAfterCommission)
		assert.False(t, s.IsRiskTaker)
	}
	assert.Zero(t, CommissionEarned(terms, entries))
}

func TestSettleSplitWithCommission(t *testing.T) {
	terms := Terms{
		RiskTakerID:           uuid.New(),
		CommissionEnabled:     true,
		CommissionRatePercent: 50,
	}
	entries := []Entry{
		{ParticipantID: uuid.New(), PrincipalShare: 600, InterestRate: 20},
		{ParticipantID: uuid.New(), PrincipalShare: 400, InterestRate: 20},
	}

	settled := Settle(terms, entries)

	assert.InDelta(t, 120, settled[0].ActualInterest, AmountTolerance)
	assert.InDelta(t, 60, settled[0].CommissionDeducted, AmountTolerance)
	assert.InDelta(t, 60, settled[0].InterestAfterCommission, AmountTolerance)

	assert.InDelta(t, 80, settled[1].ActualInterest, AmountTolerance)
	assert.InDelta(t, 40, settled[1].CommissionDeducted, AmountTolerance)
	assert.InDelta(t, 40, settled[1].InterestAfterCommission, AmountTolerance)

	assert.InDelta(t, 100, CommissionEarned(terms, entries), AmountTolerance)
}

func TestSettleRiskTakerSelfExemption(t *testing.T) {
	riskTaker := uuid.New()
	terms := Terms{
		RiskTakerID:           riskTaker,
		CommissionEnabled:     true,
		CommissionRatePercent: 50,
	}
	entries := []Entry{
		{ParticipantID: riskTaker, PrincipalShare: 400, InterestRate: 20},
		{ParticipantID: uuid.New(), PrincipalShare: 600, InterestRate: 20},
	}

	settled := Settle(terms, entries)

	// The risk taker's own allocation pays no commission, ever.
	assert.Zero(t, settled[0].CommissionDeducted)
	assert.InDelta(t, 80, settled[0].InterestAfterCommission, AmountTolerance)

	assert.InDelta(t, 120, settled[1].ActualInterest, AmountTolerance)
	assert.InDelta(t, 60, settled[1].CommissionDeducted, AmountTolerance)
	assert.InDelta(t, 60, settled[1].InterestAfterCommission, AmountTolerance)

	// Commission earned excludes the risk taker's own entry.
	assert.InDelta(t, 60, CommissionEarned(terms, entries), AmountTolerance)
}

func TestSettleDisabledFlagBeatsStoredRate(t *testing.T) {
	terms := Terms{
		RiskTakerID:           uuid.New(),
		CommissionEnabled:     false,
		CommissionRatePercent: 50,
	}
	e := Entry{ParticipantID: uuid.New(), PrincipalShare: 500, InterestRate: 10}

	settled := SettleOne(terms, e)

	assert.Zero(t, settled.CommissionDeducted)
	assert.Equal(t, settled.ActualInterest, settled.InterestAfterCommission)
}

func TestSettleZeroRateNoCommission(t *testing.T) {
	terms := Terms{
		RiskTakerID:       uuid.New(),
		CommissionEnabled: true,
	}
	e := Entry{ParticipantID: uuid.New(), PrincipalShare: 500, InterestRate: 10}

	settled := SettleOne(terms, e)

	assert.Zero(t, settled.CommissionDeducted)
	assert.InDelta(t, 50, settled.InterestAfterCommission, AmountTolerance)
}

func TestSettleClampsAtZero(t *testing.T) {
	// A 100% commission rate takes the whole interest; the result must
	// never go negative.
	terms := Terms{
		RiskTakerID:           uuid.New(),
		CommissionEnabled:     true,
		CommissionRatePercent: 100,
	}
	e := Entry{ParticipantID: uuid.New(), PrincipalShare: 1000, InterestRate: 20}

	settled := SettleOne(terms, e)

	assert.InDelta(t, 200, settled.CommissionDeducted, AmountTolerance)
	assert.GreaterOrEqual(t, settled.InterestAfterCommission, 0.0)
	assert.InDelta(t, 0, settled.InterestAfterCommission, AmountTolerance)
}

func TestSettleNoCoSyndicators(t *testing.T) {
	riskTaker := uuid.New()
	terms := Terms{
		RiskTakerID:           riskTaker,
		CommissionEnabled:     true,
		CommissionRatePercent: 50,
	}
	entries := []Entry{
		{ParticipantID: riskTaker, PrincipalShare: 1000, InterestRate: 20},
	}

	assert.Zero(t, CommissionEarned(terms, entries))
	assert.Zero(t, CommissionEarned(terms, nil))
}

func TestSettleIsDeterministic(t *testing.T) {
	terms := Terms{
		RiskTakerID:           uuid.New(),
		CommissionEnabled:     true,
		CommissionRatePercent: 12.5,
	}
	e := Entry{ParticipantID: uuid.New(), PrincipalShare: 333.33, InterestRate: 7.25}

	first := SettleOne(terms, e)
	second := SettleOne(terms, e)

	assert.Equal(t, first, second)
}
