package main

import (
	"os"

	superbizcmder "github.com/papercomputeco/superbiz/cmd/superbiz"
)

func main() {
	cmd := superbizcmder.NewSuperbizCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
