package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ligustah/widevine-fetch/internal/progress"
)

// ErrChromiumNotInstalled is returned by CheckTarget when the Chromium
// libraries directory is missing.
var ErrChromiumNotInstalled = errors.New("install: unable to find Chromium libraries, looks like Chromium is not installed")

// Step names a stage of the install sequence.
type Step string

const (
	StepMount   Step = "mount"
	StepCheck   Step = "check"
	StepCopy    Step = "copy"
	StepUnmount Step = "unmount"
	StepRemove  Step = "remove"
)

// StepError is returned when one step of the sequence fails. Later steps do
// not run.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("install: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Image is the staged disk image the sequence consumes.
type Image interface {
	Path() string
	Remove(ctx context.Context) error
}

// Options configures the install sequence.
type Options struct {
	// MountPoint is where hdiutil mounts the image.
	MountPoint string

	// SourcePath is the WidevineCdm directory inside the mounted image.
	SourcePath string

	// DestPath is where the WidevineCdm directory is copied to.
	DestPath string

	// Runner executes the external commands.
	// Default: ExecRunner
	Runner Runner

	// Output receives the human-readable step lines.
	// Default: os.Stdout
	Output io.Writer

	// Logger receives diagnostic events.
	// Default: a no-op logger
	Logger *zap.Logger

	// KeepImage leaves the staged image in place after unmounting.
	KeepImage bool
}

// CheckTarget verifies that the Chromium libraries directory exists.
func CheckTarget(librariesDir string) error {
	info, err := os.Stat(librariesDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChromiumNotInstalled, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrChromiumNotInstalled, librariesDir)
	}
	return nil
}

// Install mounts image, copies the Widevine directory out of it, unmounts it
// and removes the image.
func Install(ctx context.Context, image Image, opts Options) error {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &sequence{opts: opts, log: opts.Logger}

	if err := s.step(StepMount, fmt.Sprintf("Mounting image %s... ", image.Path()), func() error {
		return opts.Runner.Run(ctx, "hdiutil", "attach", "-quiet", "-nobrowse", image.Path())
	}); err != nil {
		return err
	}

	if err := s.step(StepCheck, "Checking... ", func() error {
		info, err := os.Stat(opts.SourcePath)
		if err != nil {
			return fmt.Errorf("unable to find Google Chrome Widevine: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", opts.SourcePath)
		}
		return nil
	}); err != nil {
		s.detach(ctx)
		return err
	}

	if err := s.step(StepCopy, "Copying... ", func() error {
		return opts.Runner.Run(ctx, "cp", "-R", opts.SourcePath, opts.DestPath)
	}); err != nil {
		s.detach(ctx)
		return err
	}

	if err := s.step(StepUnmount, "Unmounting... ", func() error {
		return s.runDetach(ctx)
	}); err != nil {
		return err
	}

	if opts.KeepImage {
		s.log.Info("keeping staged image", zap.String("path", image.Path()))
		return nil
	}

	return s.step(StepRemove, "Removing... ", func() error {
		return image.Remove(ctx)
	})
}

type sequence struct {
	opts Options
	log  *zap.Logger
}

func (s *sequence) runDetach(ctx context.Context) error {
	return s.opts.Runner.Run(ctx, "hdiutil", "detach", "-quiet", "-force", s.opts.MountPoint)
}

// detach unmounts the volume after a failed step. Its own failure is only
// logged; the step error is what the caller sees.
func (s *sequence) detach(ctx context.Context) {
	if err := s.runDetach(ctx); err != nil {
		s.log.Warn("unable to unmount image", zap.String("mount_point", s.opts.MountPoint), zap.Error(err))
	}
}

// step prints label, runs fn and finishes the line with OK or FAILED.
func (s *sequence) step(name Step, label string, fn func() error) error {
	fmt.Fprintf(s.opts.Output, "%s %s", progress.Prefix, label)

	if err := fn(); err != nil {
		fmt.Fprintln(s.opts.Output, "FAILED")
		s.log.Error("install step failed", zap.String("step", string(name)), zap.Error(err))
		return &StepError{Step: name, Err: err}
	}

	fmt.Fprintln(s.opts.Output, "OK")
	s.log.Debug("install step done", zap.String("step", string(name)))
	return nil
}
