// Package live serves one rendered tree over HTTP and streams its changes to
// WebSocket clients.
//
// A Hub owns a reconcile.Renderer drawing into an in-memory surface wrapped
// by a recorder. Each render's recorded ops are encoded with pkg/protocol and
// broadcast as one binary frame, so every connected Mirror ends up holding
// the same tree as the server.
//
// # Routes
//
//	POST   /render    render a YAML, JSON or HTML tree from the request body
//	DELETE /render    unmount the current tree
//	GET    /snapshot  current tree as HTML
//	GET    /ws        WebSocket op stream (snapshot frame first)
//	GET    /metrics   Prometheus metrics
//
// Clients may send FrameEvent frames back; the hub dispatches them on the
// server surface, where the tree's real listeners run.
//
// # Usage
//
//	hub := live.New(live.Config{Logger: logger})
//	defer hub.Close()
//	http.ListenAndServe(":7070", hub.Handler())
package live
