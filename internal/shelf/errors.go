package shelf

import "errors"

var errNotPositive = errors.New("price must be greater than zero")
