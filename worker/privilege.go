// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package worker

import (
	"os"
	"syscall"
)

// DropPrivileges switches the process to the given uid/gid, as the master
// does after opening all listening sockets but before starting the worker
// pool (spec.md §4.4). If the process is not running as root, privilege
// drop is not possible; the caller continues with a warning rather than
// failing, which is useful for testing against virtual interfaces (the
// teacher has no privilege-drop library in its dependency stack, so this
// stays on the standard library `syscall` package — see DESIGN.md).
func DropPrivileges(uid, gid int) error {
	if uid == 0 && gid == 0 {
		return nil
	}
	if os.Getuid() != 0 {
		log.Warnf("not running as root, skipping privilege drop to uid=%d gid=%d", uid, gid)
		return nil
	}
	if gid != 0 {
		if err := syscall.Setgid(gid); err != nil {
			return err
		}
	}
	if uid != 0 {
		if err := syscall.Setuid(uid); err != nil {
			return err
		}
	}
	return nil
}
