package tagver

// Stage identifies the step of a version computation a progress event
// belongs to.
type Stage string

const (
	StageTags    Stage = "tags"
	StageCount   Stage = "count"
	StageScan    Stage = "scan"
	StageCompose Stage = "compose"
)

// ProgressEvent is emitted at stage starts and at chunk boundaries while
// commit messages are parsed. Total is zero when unknown.
type ProgressEvent struct {
	Stage Stage
	Done  int
	Total int
}

// ProgressFunc receives progress events. It must not block for long; it
// is called on the goroutine doing the work.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) emit(stage Stage, done, total int) {
	if f == nil {
		return
	}
	f(ProgressEvent{Stage: stage, Done: done, Total: total})
}
