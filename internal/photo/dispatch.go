package photo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Well-known locations shared with user automation
const (
	DefaultOutputPath = "~/Documents/photo_metadata.json"
	DefaultScriptPath = "~/Documents/process_photos.sh"
	DefaultShell      = "bash"
)

// Launcher starts an external command without waiting for it to finish
type Launcher interface {
	Launch(name string, args ...string) error
}

// ExecLauncher implements Launcher with os/exec
type ExecLauncher struct{}

// Launch starts the command detached from the caller. The child inherits the
// environment, gets no stdin, runs in its own process group where the
// platform has them, and its exit status is never observed.
func (ExecLauncher) Launch(name string, args ...string) error {
	cmd := detachedCommand(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	// Reap the child so it does not linger as a zombie
	go cmd.Wait()
	return nil
}

// DispatchConfig holds the side-effect locations. A leading ~ expands to the
// user's home directory.
type DispatchConfig struct {
	OutputPath string
	ScriptPath string
	Shell      string
}

// DispatchReport tells which side-effect stages succeeded
type DispatchReport struct {
	Persisted bool
	Launched  bool
}

// Dispatcher persists the document and then kicks off the processing script
type Dispatcher struct {
	storage  Storage
	filename string
	shell    string
	script   string
	launcher Launcher
}

// NewDispatcher creates a new Dispatcher writing through LocalStorage and
// launching with ExecLauncher
func NewDispatcher(cfg DispatchConfig) (*Dispatcher, error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if cfg.ScriptPath == "" {
		cfg.ScriptPath = DefaultScriptPath
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}

	output, err := ExpandUser(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("expanding output path: %w", err)
	}
	script, err := ExpandUser(cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("expanding script path: %w", err)
	}

	storage := NewLocalStorage(filepath.Dir(output))
	return NewDispatcherWithDeps(storage, filepath.Base(output), cfg.Shell, script, ExecLauncher{}), nil
}

// NewDispatcherWithDeps creates a new Dispatcher with custom dependencies for testing
func NewDispatcherWithDeps(storage Storage, filename, shell, script string, launcher Launcher) *Dispatcher {
	return &Dispatcher{
		storage:  storage,
		filename: filename,
		shell:    shell,
		script:   script,
		launcher: launcher,
	}
}

// Dispatch writes doc and then launches the script. Each stage's failure is
// logged and does not stop the other; nothing is returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, doc []byte) DispatchReport {
	var report DispatchReport

	if path, err := d.storage.Save(d.filename, doc); err != nil {
		slog.ErrorContext(ctx, "Failed to write metadata document", "filename", d.filename, "error", err)
	} else {
		report.Persisted = true
		slog.InfoContext(ctx, "Wrote metadata document", "path", path, "size", len(doc))
	}

	if err := d.launch(); err != nil {
		slog.ErrorContext(ctx, "Failed to launch processing script", "script", d.script, "shell", d.shell, "error", err)
	} else {
		report.Launched = true
		slog.InfoContext(ctx, "Launched processing script", "script", d.script)
	}

	return report
}

func (d *Dispatcher) launch() error {
	info, err := os.Stat(d.script)
	if err != nil {
		return fmt.Errorf("checking script: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("script %s is a directory", d.script)
	}
	return d.launcher.Launch(d.shell, d.script)
}

// Document returns the document currently persisted at the output location
func (d *Dispatcher) Document() ([]byte, error) {
	return d.storage.Get(d.filename)
}

// ExpandUser replaces a leading ~ with the user's home directory.
// Other users' homes (~name) are not expanded.
func ExpandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
