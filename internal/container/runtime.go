// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and execution
// for converters that run inside an image instead of a local binary.
package container

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/deck-converter/internal/sysexec"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Mount binds a host directory into the container.
type Mount struct {
	Source string
	Target string
}

// Runtime provides container operations: checking availability, verifying
// images, and running containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(ctx context.Context, image string) error

	// Run executes a throwaway container with the given mounts and
	// arguments appended after the image name, returning its combined output.
	Run(ctx context.Context, image string, mounts []Mount, args []string) ([]byte, error)
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          sysexec.Executor

	// uid and gid of the calling process; -1 on Windows.
	uid, gid int
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, image string, mounts []Mount, args []string) ([]byte, error) {
	cmd := []string{"run", "--rm", "--network", "none"}
	cmd = append(cmd, r.identityArgs()...)
	for _, m := range mounts {
		cmd = append(cmd, "-v", m.Source+":"+m.Target)
	}
	cmd = append(cmd, image)
	cmd = append(cmd, args...)

	out, err := r.exec.RunCombined(ctx, r.bin, cmd...)
	if err != nil {
		return out, fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return out, nil
}

// identityArgs runs the container as the calling user, so that it can
// read and write mounts created with mode 0700. Rootless podman maps the
// caller to container root unless asked to keep the id. HOME is pointed at
// a writable directory for tools that keep a per-user profile.
func (r *runtime) identityArgs() []string {
	if r.uid <= 0 {
		return nil
	}
	if r.bin == binPodman {
		return []string{"--userns=keep-id", "-e", "HOME=/tmp"}
	}
	return []string{"--user", fmt.Sprintf("%d:%d", r.uid, r.gid), "-e", "HOME=/tmp"}
}

func newDockerRuntime(exec sysexec.Executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
		uid:           os.Getuid(),
		gid:           os.Getgid(),
	}
}

func newPodmanRuntime(exec sysexec.Executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
		uid:           os.Getuid(),
		gid:           os.Getgid(),
	}
}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime(ctx context.Context, exec sysexec.Executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available(ctx) {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available(ctx) {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
