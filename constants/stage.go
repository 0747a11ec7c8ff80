package constants

// PipelineStage labels one step of a document processing run. Stages appear
// in progress callbacks and structured logs.
type PipelineStage string

const (
	StageCreated     PipelineStage = "created"
	StageNormalizing PipelineStage = "normalizing"
	StageExtracting  PipelineStage = "extracting"
	StageResolving   PipelineStage = "resolving"
	StageClassifying PipelineStage = "classifying"
	StageConverting  PipelineStage = "converting"
	StageCompressing PipelineStage = "compressing"
	StagePersisting  PipelineStage = "persisting"
	StageDone        PipelineStage = "done"
	StageFailed      PipelineStage = "failed"
)

// PipelineStages lists the happy-path stages in execution order.
var PipelineStages = []PipelineStage{
	StageNormalizing,
	StageExtracting,
	StageResolving,
	StageClassifying,
	StageConverting,
	StageCompressing,
	StagePersisting,
	StageDone,
}
