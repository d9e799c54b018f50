package shared

import (
	"errors"
	"os/exec"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() {
		getRuntime = origRuntime
		startCommand = origStart
	})

	var started *exec.Cmd
	startCommand = func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}

	t.Run("uses platform launcher", func(t *testing.T) {
		tt := []struct {
			goos string
			want string
		}{
			{goos: "darwin", want: "open"},
			{goos: "linux", want: "xdg-open"},
			{goos: "windows", want: "rundll32"},
		}
		for _, tc := range tt {
			getRuntime = func() string { return tc.goos }
			started = nil

			if err := OpenBrowser("https://pay.example.com/invoice/1"); err != nil {
				t.Fatalf("%s: expected no error, got %v", tc.goos, err)
			}
			if started == nil || started.Args[0] != tc.want {
				t.Errorf("%s: expected %s launcher, got %v", tc.goos, tc.want, started)
			}
		}
	})

	t.Run("rejects non-http links", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		for _, link := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://"} {
			if err := OpenBrowser(link); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenBrowser(%q) error = %v, want ErrInvalidArgument", link, err)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("launcher failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCommand = func(*exec.Cmd) error { return errors.New("boom") }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected launcher error to surface")
		}
	})
}
