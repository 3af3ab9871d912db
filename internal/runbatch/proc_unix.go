// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr puts the child in its own process group so that signals reach
// every process the tool runner spawns.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminate asks the child's process group to exit.
func terminate(ps *os.Process) error {
	return signalGroup(ps, unix.SIGTERM)
}

// kill forcibly ends the child's process group.
func kill(ps *os.Process) error {
	return signalGroup(ps, unix.SIGKILL)
}

func signalGroup(ps *os.Process, sig unix.Signal) error {
	err := unix.Kill(-ps.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}

	return err
}
