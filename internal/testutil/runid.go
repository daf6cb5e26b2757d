package testutil

// FixedRunID returns a run id source that always yields the same id.
//
// Reports carry their run id, so byte-identical golden comparison needs the
// id pinned. The wall-clock StartedAt field is pinned separately with the
// engine's now source.
//
// If id is empty, the source yields "test-run-default".
func FixedRunID(id string) func() string {
	if id == "" {
		id = "test-run-default"
	}
	return func() string { return id }
}
