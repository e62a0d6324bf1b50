package mediator

import (
	"fmt"
	"os"
	"os/user"
	"syscall"
)

// checkSlavePermissions verifies that the slave side of the pty has sane
// ownership and mode before we hand it to the child. with-readline performs
// this check in the child, right after opening the slave by path (the
// fstat races the open). Go's pty.Open gives the parent the slave as an
// *os.File directly, with no intervening path lookup, so there is no
// TOCTOU window to race: we fstat the same descriptor the child will
// inherit, and refuse to start the child at all if it fails.
//
// Mirrors with-readline.c's modemask logic: group-write is tolerated only
// if the owning group is literally "tty" (the convention used by
// mesg(1)/write(1)); any other group permission, or any world permission,
// is rejected. The slave must also be owned by the real uid we're running
// as.
func checkSlavePermissions(slave *os.File) error {
	fi, err := slave.Stat()
	if err != nil {
		return fmt.Errorf("fstat on pty slave: %w", err)
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("cannot inspect pty slave ownership")
	}

	var modemask uint32 = 077
	if ttyGroup, err := user.LookupGroup("tty"); err == nil {
		if fmt.Sprint(st.Gid) == ttyGroup.Gid {
			modemask = 057
		}
	}
	if uint32(st.Mode)&modemask != 0 {
		return fmt.Errorf("%s has insecure mode %#o", slave.Name(), st.Mode&0777)
	}
	if uid := uint32(syscall.Getuid()); st.Uid != uid {
		return fmt.Errorf("%s has owner %d, but we are running as UID %d", slave.Name(), st.Uid, uid)
	}
	return nil
}
