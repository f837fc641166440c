package registry

// StandardDefinitions returns the declarative command table for the core
// lifecycle commands (§4.2's table), with no predicates attached — callers
// add predicates per-invocation via WithPredicates since predicates like
// worktree-clean depend on a live git read that varies per call.
func StandardDefinitions() []Definition {
	return []Definition{
		{
			Name:             "wu:claim",
			RequiredLocation: LocationMain,
			RequiredWuStatus: WuStatusReady,
			Description:      "Claim a ready WU into a new worktree and lane branch.",
		},
		{
			Name:             "wu:done",
			RequiredLocation: LocationMain,
			RequiredWuStatus: WuStatusInProgress,
			Description:      "Merge a completed WU's worktree back into main.",
		},
		{
			Name:             "wu:status",
			RequiredLocation: LocationAny,
			RequiredWuStatus: WuStatusNone,
			Description:      "Report WU/lane status.",
		},
		{
			Name:             "wu:recover",
			RequiredLocation: LocationAny,
			RequiredWuStatus: WuStatusAny,
			Description:      "Resume, reset, or clean up a stuck WU.",
		},
		{
			Name:             "wu:validate",
			RequiredLocation: LocationAny,
			RequiredWuStatus: WuStatusNone,
			Description:      "Validate WU YAML schema and preflight code paths.",
		},
		{
			Name:             "wu:watch",
			RequiredLocation: LocationAny,
			RequiredWuStatus: WuStatusNone,
			Description:      "Render a live WU/lane status view.",
		},
	}
}

// NewStandard builds a Registry preloaded with StandardDefinitions.
func NewStandard() *Registry {
	r := New()
	for _, d := range StandardDefinitions() {
		r.Define(d)
	}
	return r
}

// WithPredicates returns a copy of def with predicates attached, letting a
// caller bind live-evaluated predicates (worktree-clean, state-consistent,
// ...) per invocation without mutating the shared table.
func WithPredicates(def Definition, predicates ...Predicate) Definition {
	def.Predicates = predicates
	return def
}
