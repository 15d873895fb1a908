//go:build !unix

package system

import "errors"

func kernelRelease() (string, error) {
	return "", errors.New("kernel release is only available on unix systems")
}
