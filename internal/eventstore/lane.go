package eventstore

// LaneOccupant returns the wuId currently in_progress on lane, if any,
// scanning the replayed projection rather than relying on an external
// coordinator (§3's Lane invariant).
func LaneOccupant(result ReplayResult, lane string) (string, bool) {
	for id, state := range result.States {
		if state.Lane == lane && state.Status == StatusInProgress {
			return id, true
		}
	}
	return "", false
}
