// Superbiz CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/superbiz/internal/dagger"
)

// Superbiz is the main module for the superbiz CI/CD pipeline
type Superbiz struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Superbiz CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", ".superbiz", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Superbiz {
	return &Superbiz{
		Source: source,
	}
}

// goContainer returns a Go container with the project source mounted.
// The history store uses a pure Go sqlite driver, so CGO stays off.
//
// It is the shared foundation for tests, builds, and checks.
func (t *Superbiz) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", t.Source)
}

// CheckVet runs "go vet" over the module.
//
// +check
func (t *Superbiz) CheckVet(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}

// Test runs the superbiz unit tests via "go test"
func (t *Superbiz) Test(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
