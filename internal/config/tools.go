package config

// Tool defines the available tools in the server
const (
	// ToolValidateSyntax is the syntax validation tool name
	ToolValidateSyntax = "validate_syntax"
	// ToolRenderDiagram is the diagram rendering tool name
	ToolRenderDiagram = "render_diagram"
)

// Tool argument names
const (
	ArgDiagramCode  = "diagram_code"
	ArgDiagramText  = "diagram_text"
	ArgOutputFormat = "output_format"
)

// Output formats accepted by render_diagram
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// MimeTypePNG is the mime type of rendered raster images
const MimeTypePNG = "image/png"

// OutputFormats returns the formats render_diagram supports
func OutputFormats() []string {
	return []string{FormatSVG, FormatPNG}
}
