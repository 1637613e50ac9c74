//go:build unix

package storage

import "golang.org/x/sys/unix"

// writable asks the kernel whether this process may write path, so
// ownership, group bits and ACLs all count.
func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
