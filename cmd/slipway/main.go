// Slipway releases Docker images straight from Git context: it builds,
// tags, and pushes in one step, inferring the image name and version tag
// from the repository when they are not given explicitly.
//
// Usage:
//
//	slipway release
//	slipway release --repo https://github.com/acme/widget --auto-version
//	slipway auth login --username me
package main

import (
	"os"

	"github.com/schmitthub/slipway/internal/slipway"
)

func main() {
	os.Exit(slipway.Main())
}
