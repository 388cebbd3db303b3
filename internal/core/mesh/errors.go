package mesh

import "errors"

var (
	ErrInvalidMesh    = errors.New("invalid mesh")
	ErrCorruptPayload = errors.New("corrupt mesh payload")
)
