// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Build information, stamped at link time:
//
//	-X 'github.com/papercomputeco/superbiz/pkg/utils.Version=v1.2.3'
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies the CLI to the backend, e.g. "superbiz/v1.2.3 (abc123)".
func UserAgent() string {
	return fmt.Sprintf("superbiz/%s (%s)", Version, Sha)
}
