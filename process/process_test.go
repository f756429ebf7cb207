//go:build !windows

package process

import (
	"testing"
	"time"
)

func TestStart_MissingBinary(t *testing.T) {
	_, err := Start("/nonexistent/encoder-binary", nil)
	if err == nil {
		t.Fatal("Expected error starting a missing binary")
	}
}

func TestProcess_CleanExit(t *testing.T) {
	p, err := Start("true", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := p.Wait(); err != nil {
		t.Errorf("Expected clean exit, got: %v", err)
	}
	if !p.Exited() {
		t.Error("Expected Exited to be true after Wait")
	}
	if code := p.ExitCode(); code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
}

func TestProcess_NonZeroExit(t *testing.T) {
	p, err := Start("false", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := p.Wait(); err == nil {
		t.Error("Expected exit error for non-zero exit code")
	}
	if code := p.ExitCode(); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestProcess_Liveness(t *testing.T) {
	p, err := Start("sleep", []string{"5"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		p.cmd.Process.Kill()
		p.Wait()
	}()

	if p.Exited() {
		t.Error("Expected process to still be running")
	}
	if code := p.ExitCode(); code != -1 {
		t.Errorf("Expected exit code -1 while running, got %d", code)
	}
}

func TestProcess_WaitIsReentrant(t *testing.T) {
	p, err := Start("true", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { done <- p.Wait() }()
	}
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Wait returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Wait did not return")
		}
	}
}
