package objectstore

import "errors"

var errEmptyPath = errors.New("empty object path")
