package pptx

// XML namespaces
const (
	NSPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	NSDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	NSSection2010   = "http://schemas.microsoft.com/office/powerpoint/2010/main"
)

// Relationship types
const (
	RelTypeOfficeDocument = NSRelationships + "/officeDocument"
	RelTypeSlide          = NSRelationships + "/slide"
	RelTypeSlideLayout    = NSRelationships + "/slideLayout"
	RelTypeSlideMaster    = NSRelationships + "/slideMaster"
	RelTypeNotesSlide     = NSRelationships + "/notesSlide"
)

// Content types
const (
	ContentTypeSlide         = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
)

const contentTypesPart = "[Content_Types].xml"

const xmlDeclaration = `version="1.0" encoding="UTF-8" standalone="yes"`

// Slide-level relationship types that must not be followed when copying
// parts between packages.
var structuralRelTypes = map[string]bool{
	RelTypeSlide:       true,
	RelTypeSlideLayout: true,
	RelTypeSlideMaster: true,
	RelTypeNotesSlide:  true,
}
