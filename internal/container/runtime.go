// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and execution.
// It backs two features: piping PDFs through a converter image, and
// managing the local pgvector database container.
// Per prd001-ingestion R4.3, prd003-storage R5.1-R5.4.
package container

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// ServiceSpec describes a long-running container started with RunDetached.
type ServiceSpec struct {
	// Name is the container name, used for stop and status lookups.
	Name string

	// Image is the image reference to run.
	Image string

	// Ports maps host to container ports, "5532:5432" style.
	Ports []string

	// Env holds KEY=VALUE environment entries.
	Env []string

	// Volumes holds host:container mount entries.
	Volumes []string
}

// Runtime provides container operations: checking availability, verifying
// images, one-shot piped runs, and detached service management.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	ImageExists(image string) error

	// RunPiped executes a container with the given image, piping stdin
	// and stdout.
	RunPiped(image string, stdin io.Reader, stdout io.Writer) error

	// RunDetached starts a named service container in the background.
	RunDetached(spec ServiceSpec) error

	// Stop stops and removes the named container.
	Stop(name string) error

	// Running reports whether a container with the given name is running.
	Running(name string) (bool, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunOutput(name string, args ...string) (string, error)
	RunStreams(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunOutput(name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &out
	err := cmd.Run()
	return out.String(), err
}

func (o *osExecutor) RunStreams(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman share the same CLI surface for everything used here except the
// image existence check.
type runtime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := append(append([]string{}, r.imageCheckCmd...), image)
	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) RunPiped(image string, stdin io.Reader, stdout io.Writer) error {
	args := []string{"run", "--rm", "-i", image}
	if err := r.exec.RunStreams(r.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

func (r *runtime) RunDetached(spec ServiceSpec) error {
	args := []string{"run", "-d", "--name", spec.Name}
	for _, p := range spec.Ports {
		args = append(args, "-p", p)
	}
	for _, e := range spec.Env {
		args = append(args, "-e", e)
	}
	for _, v := range spec.Volumes {
		args = append(args, "-v", v)
	}
	args = append(args, spec.Image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("starting %s container %s: %w", r.bin, spec.Name, err)
	}
	return nil
}

func (r *runtime) Stop(name string) error {
	if err := r.exec.RunSilent(r.bin, "rm", "-f", name); err != nil {
		return fmt.Errorf("stopping container %s: %w", name, err)
	}
	return nil
}

func (r *runtime) Running(name string) (bool, error) {
	out, err := r.exec.RunOutput(r.bin, "ps", "--filter", "name="+name, "--format", "{{.Names}}")
	if err != nil {
		return false, fmt.Errorf("listing containers: %w", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == name {
			return true, nil
		}
	}
	return false, nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
