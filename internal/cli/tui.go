package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/d41928/shellherd/internal/config"
	"github.com/d41928/shellherd/internal/pidfile"
	"github.com/d41928/shellherd/internal/tui"
)

const (
	serverStartTimeout = 5 * time.Second
	serverStopGrace    = 3 * time.Second
)

func newTUICmd() *cobra.Command {
	var (
		attach   bool
		pollMs   int
		logLines int
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		Long: `Open a terminal dashboard showing process status and logs.

By default this starts its own API server and shuts it down on exit.
With --attach it connects to an already running server instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runTUI(cfg, attach, time.Duration(pollMs)*time.Millisecond, logLines)
		},
	}

	cmd.Flags().BoolVar(&attach, "attach", false, "Attach to a running server instead of starting one")
	cmd.Flags().IntVar(&pollMs, "poll", 500, "Poll interval in milliseconds")
	cmd.Flags().IntVar(&logLines, "lines", 50, "Number of log lines to show")
	return cmd
}

func runTUI(cfg *config.Config, attach bool, poll time.Duration, logLines int) error {
	client := tui.NewClient(cfg.Host, cfg.Port)

	var serverOut *tui.RingBuffer
	if !attach && !pidfile.IsRunning(cfg.LogDir) {
		out, stop, err := startServer(cfg)
		if err != nil {
			return err
		}
		defer stop()
		serverOut = out

		if err := waitForServer(client); err != nil {
			return err
		}
	}

	dashboard := tui.NewDashboard(client, serverOut, poll, logLines)
	return dashboard.Run()
}

// startServer launches "shellherd serve" as a child process, capturing
// its merged stdout and stderr into a ring buffer for the dashboard.
// The returned stop function terminates the child.
func startServer(cfg *config.Config) (*tui.RingBuffer, func(), error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find executable: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}

	cmd := &exec.Cmd{
		Path: executable,
		Args: []string{
			executable, "serve",
			"--host", cfg.Host,
			"--port", fmt.Sprintf("%d", cfg.Port),
			"--log-dir", cfg.LogDir,
		},
		Stdout: pw,
		Stderr: pw,
	}
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, nil, fmt.Errorf("failed to start server: %w", err)
	}
	pw.Close()

	out := tui.NewRingBuffer(0)
	go func() {
		defer pr.Close()
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			out.Append(scanner.Text())
		}
	}()

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	stop := func() {
		cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(serverStopGrace):
			cmd.Process.Kill()
			<-done
		}
	}
	return out, stop, nil
}

// waitForServer polls /health until the server answers or the startup
// timeout elapses.
func waitForServer(client *tui.Client) error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if client.Healthy() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server did not become ready within %s", serverStartTimeout)
}
