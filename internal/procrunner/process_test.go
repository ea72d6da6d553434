package procrunner

import "testing"

func TestRunCapturesExitCodeAndOutput(t *testing.T) {
	result, err := Run("sh", []string{"-c", "echo hello; exit 3"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if got := string(result.Output); got != "hello\n" {
		t.Errorf("Output = %q, want %q", got, "hello\n")
	}
}

func TestRunSuccess(t *testing.T) {
	result, err := Run("true", nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
}

func TestRunMissingExecutable(t *testing.T) {
	if _, err := Run("rllvm-definitely-not-a-real-binary", nil, Options{}); err == nil {
		t.Error("expected an error for a missing executable")
	}
}
