//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep mockgen, invoked through
// the `//go:generate` headers of the contract, repository and service files,
// tracked in go.mod so `go generate ./...` works on a fresh checkout.
package dm_lab

import (
	_ "go.uber.org/mock/mockgen"
)
