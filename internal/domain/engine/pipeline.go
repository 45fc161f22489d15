package engine

type PipelinePhase string

const (
	Guards PipelinePhase = "guards"
)
