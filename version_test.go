package blocktl

import "testing"

func TestFullVersion(t *testing.T) {
	prev := GitCommit
	t.Cleanup(func() { GitCommit = prev })

	GitCommit = "unknown"
	if got := FullVersion(); got != Version {
		t.Errorf("FullVersion = %q, want %q", got, Version)
	}
	if Build().GitCommit != "" {
		t.Error("Unset commit should be empty in build info")
	}

	GitCommit = "0123456789abcdef"
	if got := FullVersion(); got != Version+"+0123456" {
		t.Errorf("FullVersion = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "blocktl/"+Version {
		t.Errorf("UserAgent = %q", got)
	}
}
