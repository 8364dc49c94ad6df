// Package widgetbridge implements a bidirectional bridge between embedded
// widget surfaces and their host application: correlated request/response
// messaging, host-to-widget state replication, tool execution, and a
// compatibility shim for foreign host-API conventions.
//
// # Host side
//
// The host mounts a widget resource with a Renderer. Tool calls coming out
// of the widget are executed by a host-supplied callable, here backed by a
// tool registry:
//
//	reg := widgetbridge.NewToolRegistry(slog.Default())
//	_ = reg.Register("lookup", "Look up a record",
//	    widgetbridge.SimpleSchema(map[string]string{"q": "string"}),
//	    func(ctx context.Context, args map[string]any) (map[string]any, error) {
//	        return map[string]any{"rows": 2}, nil
//	    },
//	)
//
//	renderer, err := widgetbridge.NewRenderer(widgetbridge.RendererConfig{
//	    Logger:    slog.Default(),
//	    Transport: hostEnd,
//	    Resource:  widgetbridge.InlineResource(markup, "https://widgets.example"),
//	    CallTool:  reg.Callable(),
//	    ToolInput: map[string]any{"q": "go"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := renderer.Mount(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Unmount(ctx)
//
// # Widget side
//
// Widget code talks to the host through a Client, a capability object whose
// operations turn into correlated wire messages:
//
//	bridge := widgetbridge.NewBridge(slog.Default(), widgetEnd, "")
//	_ = bridge.Start(ctx)
//
//	cl := widgetbridge.NewClient(widgetbridge.ClientConfig{
//	    Logger: slog.Default(),
//	    Bridge: bridge,
//	})
//
//	result, err := cl.Operations().CallTool(ctx, "lookup", map[string]any{"q": "go"})
//
// Every operation has a working default, so widget code runs unmodified
// before host wiring exists. Defaults log the missing capability and resolve
// within the configured deadline instead of hanging.
//
// # Transports
//
// Pipe returns a linked in-process pair for same-process embedding and tests.
// AcceptWebSocket and DialWebSocket carry the same messages across processes,
// one JSON message per text frame.
//
// # Foreign conventions
//
// For widgets written against a window.openai style API, GenerateShim emits
// a self-contained script speaking this wire protocol, and WrapMarkup
// injects it into the widget document ahead of widget code.
package widgetbridge
