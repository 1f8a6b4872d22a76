package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AdapterThresholds carries the per-kind consensus floors from spec §4.3.a.
// Exact numeric baselines are externally configurable (see pkg/config);
// this type only carries the resolved values for one kind.
type AdapterThresholds struct {
	MinStake          uint64
	MinWorkDifficulty uint64
}

// ConsensusValidator performs the composite, four-proof validation every
// state-changing operation must pass before an adapter may mutate state
// (spec §4.1). The fixed ordering below ensures cheap local checks reject
// malformed input before any hashing is attempted.
type ConsensusValidator struct {
	logger *logrus.Logger
}

// ValidateComprehensive runs the full, ordered, composite validation
// described in spec §4.1:
//  1. Stake: structural validity, amount >= threshold, holder != self.
//  2. Time: recompute hash, check freshness and offset bounds.
//  3. Space: non-triviality checks.
//  4. Work: difficulty floor, state in {Running, Completed}.
// plus the cross-proof invariant that the stake timestamp strictly precedes
// the time-proof timestamp.
func (v *ConsensusValidator) ValidateComprehensive(ctx context.Context, proof ConsensusProof, selfID string, thresholds AdapterThresholds) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Step 1: Stake.
	if !proof.Stake.Validate() {
		v.logf("stake proof failed structural validation: holder=%s", proof.Stake.StakeHolder)
		return &ConsensusValidationFailed{Kind: InvalidStakeHolder}
	}
	if proof.Stake.StakeHolderID == selfID {
		v.logf("stake holder is self: %s", selfID)
		return &ConsensusValidationFailed{Kind: InvalidStakeHolder}
	}
	if proof.Stake.StakeAmount < thresholds.MinStake {
		v.logf("insufficient stake: have=%d want>=%d", proof.Stake.StakeAmount, thresholds.MinStake)
		return &ConsensusValidationFailed{Kind: InsufficientAuthority}
	}

	// Step 2: Time.
	if !proof.Time.Validate() {
		v.logf("time proof failed validation")
		if ComputeTimeProofHash(proof.Time.NetworkTimeOffset, proof.Time.Timestamp, proof.Time.Nonce) != proof.Time.ProofHash {
			return &ConsensusValidationFailed{Kind: InvalidTimestamp}
		}
		return &ConsensusValidationFailed{Kind: TimestampDriftExceeded}
	}

	// Cross-proof invariant: stake must predate the timestamping moment.
	if !proof.Stake.Timestamp.Before(proof.Time.Timestamp) {
		v.logf("stake timestamp does not precede time-proof timestamp")
		return &ConsensusValidationFailed{Kind: StakeNotBeforeTime}
	}

	// Step 3: Space.
	if !proof.Space.Validate() {
		v.logf("space proof failed validation")
		return &ConsensusValidationFailed{Kind: InvalidStorageCommitment}
	}

	// Step 4: Work.
	if proof.Work.ComputationalPower < thresholds.MinWorkDifficulty {
		v.logf("insufficient work difficulty: have=%d want>=%d", proof.Work.ComputationalPower, thresholds.MinWorkDifficulty)
		return &ConsensusValidationFailed{Kind: InsufficientDifficulty}
	}
	if !proof.Work.Validate() {
		v.logf("work proof failed validation")
		return &ConsensusValidationFailed{Kind: InvalidWorkProof}
	}

	return nil
}

func (v *ConsensusValidator) logf(format string, args ...interface{}) {
	if v.logger == nil {
		return
	}
	v.logger.WithField("component", "consensus_validator").Debugf(format, args...)
}

// NewConsensusValidator constructs a validator bound to the given logger.
func NewConsensusValidator(logger *logrus.Logger) *ConsensusValidator {
	return &ConsensusValidator{logger: logger}
}
