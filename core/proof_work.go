package core

// WorkloadType enumerates the kinds of work a WorkProof can attest to.
type WorkloadType int

const (
	WorkloadGenesis WorkloadType = iota
	WorkloadModify
	WorkloadDelete
	WorkloadStorage
	WorkloadCompute
	WorkloadNetwork
)

func (t WorkloadType) String() string {
	switch t {
	case WorkloadGenesis:
		return "Genesis"
	case WorkloadModify:
		return "Modify"
	case WorkloadDelete:
		return "Delete"
	case WorkloadStorage:
		return "Storage"
	case WorkloadCompute:
		return "Compute"
	case WorkloadNetwork:
		return "Network"
	default:
		return "Unknown"
	}
}

// WorkState tracks the lifecycle of the computation a WorkProof attests to.
type WorkState int

const (
	WorkPending WorkState = iota
	WorkRunning
	WorkCompleted
	WorkFailed
)

func (s WorkState) String() string {
	switch s {
	case WorkPending:
		return "Pending"
	case WorkRunning:
		return "Running"
	case WorkCompleted:
		return "Completed"
	case WorkFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// WorkProof answers WHAT/HOW: the computational resource committed to an
// operation.
type WorkProof struct {
	OwnerID            string
	WorkloadID         string
	PID                uint64
	ComputationalPower uint64
	WorkloadType       WorkloadType
	WorkState          WorkState
	ChallengeOutput    []byte
	Nonce              [16]byte
}

// Validate performs the cheap, local, non-triviality checks from spec §4.1
// step 4, excluding the adapter-specific difficulty floor which requires
// context the proof itself does not carry.
func (p *WorkProof) Validate() bool {
	if p.ComputationalPower == 0 {
		return false
	}
	return p.WorkState == WorkRunning || p.WorkState == WorkCompleted
}
