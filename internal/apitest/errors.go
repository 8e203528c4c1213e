package apitest

import "errors"

var errAccountNotFound = errors.New("apitest.account_not_found")
