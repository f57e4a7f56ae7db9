package pptx

var (
	ResolveTarget  = resolveTarget
	RelativeTarget = relativeTarget
	RelsPartName   = relsPartName
)
