package version

import "testing"

func TestInfoUnsetBuildInfo(t *testing.T) {
	if got := Info(); got != "dev (unknown) built unknown" {
		t.Errorf("Info() = %q, want the unset-ldflags defaults", got)
	}
}

func TestInfoWithBuildMetadata(t *testing.T) {
	prevVersion, prevCommit, prevDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = prevVersion, prevCommit, prevDate
	})

	Version = "v0.3.0"
	GitCommit = "4f2a9c1"
	BuildDate = "2026-08-01T12:00:00Z"
	want := "v0.3.0 (4f2a9c1) built 2026-08-01T12:00:00Z"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}
