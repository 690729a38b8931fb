//go:build !windows

package domain

import "context"

// unavailableService is the platform repair service on hosts without one.
// Selection falls back to the local engine before this is ever invoked.
type unavailableService struct{}

func newPlatformService(int) RepairService {
	return unavailableService{}
}

func (unavailableService) Available() bool {
	return false
}

func (unavailableService) Repair(context.Context, string, string) error {
	return ErrEngineUnavailable
}
