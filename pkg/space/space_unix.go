//go:build linux || darwin

package space

import "golang.org/x/sys/unix"

func freeBytes(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	// Bavail is what unprivileged writers can actually use.
	return int64(st.Bavail) * int64(st.Bsize), nil
}
