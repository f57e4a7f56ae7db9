package pptx

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidPackage = goerr.New("invalid presentation package")
	ErrInvalidPart    = goerr.New("invalid package part")
	ErrPartNotFound   = goerr.New("package part not found")
	ErrNoLayout       = goerr.New("presentation has no slide layout")
	ErrSlideNotFound  = goerr.New("slide not found")
)

// Context keys for error values
const (
	PartKey  = "part"
	PathKey  = "path"
	IndexKey = "index"
)
