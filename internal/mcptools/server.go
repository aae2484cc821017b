package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewModelMCPServer creates an MCP server with the model tools registered.
func NewModelMCPServer(svc *ModelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "xmigraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_model",
		Description: "Extract a UML model from an Enterprise Architect XMI export, following package references into other files, and load it into the model graph. Optionally writes the tab-separated interchange tables.",
	}, svc.ExtractModel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_elements",
		Description: "Search model elements (packages, classes, actors, use cases, ...) by name substring. Optionally filter by UML type and limit results.",
	}, svc.QueryElements)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_element",
		Description: "Return one model element with its labels and properties by GUID.",
	}, svc.GetElement)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_children",
		Description: "List the elements directly contained by a package.",
	}, svc.GetChildren)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relationships",
		Description: "List generalizations, dependencies and associations touching an element.",
	}, svc.GetRelationships)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Traverse relationships outward or inward from an element. Returns relationship chains up to the specified depth.",
	}, svc.GetDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assess_impact",
		Description: "Compute which elements reference a set of changed elements, directly or transitively, with a risk score.",
	}, svc.AssessImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Return element, stub, relationship and containment counts of the model graph.",
	}, svc.GetStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_diagram",
		Description: "Render the model graph as a Mermaid flowchart with packages as subgraphs.",
	}, svc.GetDiagram)

	return server
}

// RunMCPServer starts an HTTP server exposing the model MCP tools.
func RunMCPServer(ctx context.Context, svc *ModelService, addr string) error {
	server := NewModelMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *ModelService) error {
	return NewModelMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
