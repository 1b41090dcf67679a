package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicateTag = errors.New("tag name already exists")
	ErrDecode       = errors.New("image data could not be decoded")
	ErrEncode       = errors.New("image data could not be encoded")
	ErrEmptyFolder  = errors.New("folder contains no image files")
)
