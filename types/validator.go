package types

// ValidatorTelemetry tracks the rolling performance metrics D-GBDT
// scores against. Every rate metric is carried as an integer scaled
// by 10_000 (i.e. 10_000 == 100%) — never a float — so scoring stays
// bit-reproducible across hosts.
type ValidatorTelemetry struct {
	ValidatorID           ValidatorID
	BlocksProposed        uint64
	BlocksVerified        uint64
	AvgLatencyUs          uint64
	UptimeScaled          int64
	RecentPerformanceScaled int64
	SlashCount            uint64
	AgeRounds             uint64
	LastActiveRound       RoundID
	InconsistencyCount    uint64
	// LastSampleTimeUs is the validator's own last-observed IPPAN
	// timestamp, the sampleTimeUs input to gbdt.BuildFeatureVector.
	LastSampleTimeUs      int64
}

// DefaultValidatorTelemetry returns the telemetry record used when a
// validator is first observed: full uptime/performance credit, no
// history yet.
func DefaultValidatorTelemetry(id ValidatorID, round RoundID) ValidatorTelemetry {
	return ValidatorTelemetry{
		ValidatorID:             id,
		AvgLatencyUs:            100_000,
		UptimeScaled:            10_000,
		RecentPerformanceScaled: 10_000,
		AgeRounds:               1,
		LastActiveRound:         round,
	}
}

// ValidatorRecord is the bonding + telemetry state the DLC engine
// tracks per validator. BondOK gates eligibility for primary/shadow
// selection regardless of score.
type ValidatorRecord struct {
	ID        ValidatorID
	Stake     Amount
	BondOK    bool
	Telemetry ValidatorTelemetry
}

// ValidatorBond is the durable bonding record a validator posts before
// it can be selected as a proposer or shadow verifier: a staked amount
// and whether that stake currently satisfies the configured bond
// requirement. Stored separately from ValidatorTelemetry because a
// bond is posted once and rarely changes, while telemetry mutates
// every round.
type ValidatorBond struct {
	ValidatorID ValidatorID
	Stake       Amount
	BondOK      bool
}
