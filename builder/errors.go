package builder

import "errors"

var (
	ErrInvalidProject = errors.New("invalid project configuration")
	ErrProjectExists  = errors.New("project directory already exists")
	ErrOutputLocked   = errors.New("output directory is locked by another generation run")
	ErrPlibNotFound   = errors.New("no vendor peripheral library installation found")
	ErrEmissionFailed = errors.New("artifact emission failed")
)
