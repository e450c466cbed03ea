package ports

type EditorMetrics interface {
	RecordCommit(op string)
	RecordConflict(op string)
	RecordFailure(op string)
}
