package inmemory

import (
	"sync"

	"villagemap/internal/app/ports"
)

// Snapshot counts editor writes. Conflicts are commits that overwrote a newer
// document, so they are included in EditCommit as well.
type Snapshot struct {
	EditTotal    uint64            `json:"edit_total"`
	EditCommit   uint64            `json:"edit_commit"`
	EditConflict uint64            `json:"edit_conflict"`
	EditFailure  uint64            `json:"edit_failure"`
	CommitByOp   map[string]uint64 `json:"commit_by_op"`
	FailureByOp  map[string]uint64 `json:"failure_by_op"`
}

type Recorder struct {
	mu        sync.Mutex
	commit    uint64
	conflict  uint64
	failure   uint64
	commitOp  map[string]uint64
	failureOp map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		commitOp:  map[string]uint64{},
		failureOp: map[string]uint64{},
	}
}

func (r *Recorder) RecordCommit(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commit++
	r.commitOp[op]++
}

func (r *Recorder) RecordConflict(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
	r.failureOp[op]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		EditCommit:   r.commit,
		EditConflict: r.conflict,
		EditFailure:  r.failure,
		EditTotal:    r.commit + r.failure,
		CommitByOp:   make(map[string]uint64, len(r.commitOp)),
		FailureByOp:  make(map[string]uint64, len(r.failureOp)),
	}
	for k, v := range r.commitOp {
		out.CommitByOp[k] = v
	}
	for k, v := range r.failureOp {
		out.FailureByOp[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

var _ ports.EditorMetrics = (*Recorder)(nil)
