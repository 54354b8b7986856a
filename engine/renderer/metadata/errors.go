package metadata

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrUnknownShader      = errors.New("unknown shader mode")
	ErrInvalidPipeline    = errors.New("invalid pipeline description")
	ErrInvalidUpload      = errors.New("invalid upload")
	ErrConstantBlockShape = errors.New("constant block does not match shader layout")
)
