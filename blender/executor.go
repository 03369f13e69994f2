package blender

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/blendpipe/blendpipe/fs"
	"github.com/blendpipe/blendpipe/logger"
	"github.com/blendpipe/blendpipe/utils"
)

// Result describes one completed render.
type Result struct {
	ImagePath string
	Stdout    string
	Stderr    string
}

// Runner executes a validated script inside the host application. The
// pipeline depends on this interface so tests can fake the Blender process.
type Runner interface {
	Render(ctx context.Context, script string) (*Result, error)
}

// Executor runs scripts through a headless Blender subprocess.
type Executor struct {
	binary     string
	workspace  *fs.Workspace
	timeout    time.Duration
	openViewer bool
	logger     logger.Logger
}

func NewExecutor(binary string, workspace *fs.Workspace, timeout time.Duration, openViewer bool, l logger.Logger) *Executor {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Executor{
		binary:     binary,
		workspace:  workspace,
		timeout:    timeout,
		openViewer: openViewer,
		logger:     l,
	}
}

// Render wraps the script in the render scaffold, runs it in a background
// Blender process and verifies the output image exists. The script text is
// taken as-is; any interpreter failure surfaces to the caller.
func (e *Executor) Render(ctx context.Context, script string) (*Result, error) {
	stamp := time.Now().Format("20060102_150405")
	renderName := fmt.Sprintf("render_%s.png", stamp)
	scriptName := fmt.Sprintf("script_%s.py", stamp)

	outputPath, err := filepath.Abs(e.workspace.Path(renderName))
	if err != nil {
		return nil, fmt.Errorf("error resolving output path: %w", err)
	}

	wrapped, err := BuildRenderScript(script, outputPath)
	if err != nil {
		return nil, err
	}

	scriptPath, err := e.workspace.WriteFile(scriptName, wrapped)
	if err != nil {
		return nil, fmt.Errorf("error writing render script: %w", err)
	}
	defer func() {
		if err := e.workspace.Remove(scriptName); err != nil {
			e.logger.Warn(fmt.Sprintf("Failed to remove render script %s: %v", scriptPath, err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.binary, "--background", "--python", scriptPath)
	cmd.Env = append(os.Environ(), "TBB_MALLOC_DISABLE_REPLACEMENT=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Info(fmt.Sprintf("Running Blender: %s --background --python %s", e.binary, scriptPath))
	err = cmd.Run()

	result := &Result{
		ImagePath: outputPath,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("blender execution timed out after %v", e.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("blender execution failed: %w: %s",
			err, utils.TruncateString(result.Stderr, 500))
	}

	if !e.workspace.Exists(renderName) {
		return nil, fmt.Errorf("blender ran but produced no output at %s: %s",
			outputPath, utils.TruncateString(result.Stdout, 500))
	}

	if e.openViewer {
		if err := OpenFile(outputPath); err != nil {
			e.logger.Warn(fmt.Sprintf("Failed to open render in viewer: %v", err))
		}
	}

	return result, nil
}
