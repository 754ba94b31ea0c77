//go:build !linux && !darwin

package space

import "errors"

func freeBytes(string) (int64, error) {
	return 0, errors.New("free space query not supported on this platform")
}
