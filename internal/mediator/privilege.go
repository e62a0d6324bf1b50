package mediator

import (
	"fmt"
	"syscall"
)

// SurrenderPrivilege drops any setuid/setgid privilege the process was
// started with, matching with-readline's surrender_privilege(): it sets
// the effective ids back to the real ids and verifies the kernel actually
// did so, refusing to continue if a privileged bit survives.
func SurrenderPrivilege() error {
	if rgid, egid := syscall.Getgid(), syscall.Getegid(); rgid != egid {
		if err := syscall.Setregid(rgid, rgid); err != nil {
			return fmt.Errorf("error calling setregid: %w", err)
		}
		if syscall.Getgid() != syscall.Getegid() {
			return fmt.Errorf("real and effective group IDs do not match")
		}
		if err := syscall.Setgid(egid); err == nil {
			return fmt.Errorf("failed to surrender privileged group ID")
		}
	}
	if ruid, euid := syscall.Getuid(), syscall.Geteuid(); ruid != euid {
		if err := syscall.Setreuid(ruid, ruid); err != nil {
			return fmt.Errorf("error calling setreuid: %w", err)
		}
		if syscall.Getuid() != syscall.Geteuid() {
			return fmt.Errorf("real and effective user IDs do not match")
		}
		if err := syscall.Setuid(euid); err == nil {
			return fmt.Errorf("failed to surrender privileged user ID")
		}
	}
	return nil
}
