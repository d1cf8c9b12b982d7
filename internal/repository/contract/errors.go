package contract

import "errors"

var ErrLocationNotFound = errors.New("no location saved")
