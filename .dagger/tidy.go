package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/superbiz/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
// The module must also stay free of replace directives so every dependency
// resolves from its real upstream.
//
// +check
func (t *Superbiz) CheckGoModTidy(ctx context.Context) (string, error) {
	ctr := t.goContainer()

	_, err := ctr.
		WithExec([]string{"go", "mod", "tidy", "-diff"}).
		Sync(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf("go.mod or go.sum are not tidy, run 'go mod tidy':\n\n%s", e.Stdout)
	} else if err != nil {
		return "", fmt.Errorf("running go mod tidy: %w", err)
	}

	replaces, err := ctr.
		WithExec([]string{"go", "list", "-m", "-f", "{{if .Replace}}{{.Path}}{{end}}", "all"}).
		Stdout(ctx)
	if err != nil {
		return "", fmt.Errorf("listing module replacements: %w", err)
	}
	if replaces != "" {
		return "", fmt.Errorf("go.mod replaces modules:\n%s", replaces)
	}

	return "go.mod and go.sum are tidy", nil
}
