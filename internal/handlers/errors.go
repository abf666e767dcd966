package handlers

import "errors"

var (
	errOrderTaken         = errors.New("slide order already in use")
	errIncompleteSequence = errors.New("reorder must cover the full slide sequence")
	errInvalidBlobURL     = errors.New("url host is not an allowed storage host")
)
