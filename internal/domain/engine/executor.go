package engine

// GuardExecutor evaluates one guard and records a Violation on ctx when it trips.
type GuardExecutor interface {
	Execute(guard Guard, ctx *EngineContext) error
}
