package reconcile

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/metrics"
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Render modes reported in logs, spans and metrics.
const (
	ModeMount   = "mount"
	ModePatch   = "patch"
	ModeUnmount = "unmount"
)

// Stats counts the node operations of one render.
type Stats struct {
	Mounted      int // Nodes created
	Patched      int // Nodes reused in place
	Moved        int // Reused nodes physically moved among their siblings
	Removed      int // Subtrees detached from their parent
	Replaced     int // Nodes removed and remounted because kind or tag changed
	PropsChanged int // Surface calls issued for props, styles and listeners
}

// Renderer reconciles virtual trees into a surface.
type Renderer struct {
	surf      surface.Surface
	trees     map[surface.Handle]*vdom.VNode
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	keyPolicy KeyPolicy
	stats     Stats
}

// New creates a Renderer driving s.
func New(s surface.Surface, opts ...Option) *Renderer {
	r := &Renderer{
		surf:   s,
		trees:  make(map[surface.Handle]*vdom.VNode),
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(DefaultTracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Surface returns the surface the Renderer drives.
func (r *Renderer) Surface() surface.Surface {
	return r.surf
}

// KeyPolicy returns the configured duplicate key policy.
func (r *Renderer) KeyPolicy() KeyPolicy {
	return r.keyPolicy
}

// Render is RenderContext with a background context.
func (r *Renderer) Render(tree *vdom.VNode, container surface.Handle) error {
	return r.RenderContext(context.Background(), tree, container)
}

// RenderContext reconciles tree into container.
//
// The first call for a container mounts tree. Later calls patch the recorded
// tree into tree. A nil tree unmounts whatever the container holds and is a
// no-op for a container with no record. On success tree becomes the
// container's record; on failure the record is dropped.
//
// ctx carries the trace span only. A render that has started always runs to
// completion or to its first error.
func (r *Renderer) RenderContext(ctx context.Context, tree *vdom.VNode, container surface.Handle) (err error) {
	prev, recorded := r.trees[container]
	if tree == nil && !recorded {
		return nil
	}

	mode := ModePatch
	switch {
	case tree == nil:
		mode = ModeUnmount
	case !recorded:
		mode = ModeMount
	}

	_, span := r.tracer.Start(ctx, "vtree.render",
		trace.WithAttributes(attribute.String("vtree.mode", mode)),
	)
	defer span.End()

	r.stats = Stats{}
	start := time.Now()

	switch mode {
	case ModeMount:
		err = r.mount(tree, container, nil)
	case ModePatch:
		err = r.patch(prev, tree, container)
	case ModeUnmount:
		err = r.remove(prev, container)
	}

	if err != nil || tree == nil {
		delete(r.trees, container)
	} else {
		r.trees[container] = tree
	}
	r.observe(mode, err, time.Since(start))

	span.SetAttributes(
		attribute.Int("vtree.mounted", r.stats.Mounted),
		attribute.Int("vtree.patched", r.stats.Patched),
		attribute.Int("vtree.moved", r.stats.Moved),
		attribute.Int("vtree.removed", r.stats.Removed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("render failed",
			"mode", mode,
			"code", errors.CodeOf(err),
			"error", err,
		)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Unmount removes the container's recorded tree from the surface and forgets
// the container. It fails with R005 when nothing was rendered into it.
func (r *Renderer) Unmount(container surface.Handle) error {
	if _, ok := r.trees[container]; !ok {
		return errors.New("R005").WithDetailf("container %v", container)
	}
	return r.Render(nil, container)
}

// Current returns the tree recorded for container, or nil.
func (r *Renderer) Current(container surface.Handle) *vdom.VNode {
	return r.trees[container]
}

// Containers returns the number of containers holding a recorded tree.
func (r *Renderer) Containers() int {
	return len(r.trees)
}

// Stats returns the operation counts of the most recent render.
func (r *Renderer) Stats() Stats {
	return r.stats
}

func (r *Renderer) observe(mode string, err error, d time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveRender(mode, err, d)
	r.metrics.AddNodes("mounted", r.stats.Mounted)
	r.metrics.AddNodes("patched", r.stats.Patched)
	r.metrics.AddNodes("moved", r.stats.Moved)
	r.metrics.AddNodes("removed", r.stats.Removed)
	r.metrics.AddNodes("replaced", r.stats.Replaced)
	r.metrics.AddProps(r.stats.PropsChanged)
	r.metrics.SetContainers(len(r.trees))
}

// surfaceErr wraps an adapter failure.
func surfaceErr(op string, node *vdom.VNode, err error) error {
	return errors.New("R003").WithDetailf("%s %s", op, node).Wrap(err)
}

func unsupported(node *vdom.VNode) error {
	return errors.New("R001").WithDetailf("%s node", node.Kind)
}

func checkShape(node *vdom.VNode) error {
	if node.Kind != vdom.KindElement || node.ShapeConsistent() {
		return nil
	}
	return errors.New("R002").WithDetailf("%s declares %s children but holds %d", node, node.Shape, len(node.Children))
}

// release clears the bindings of a subtree whose surface nodes were
// discarded.
func release(node *vdom.VNode) {
	node.Bound = nil
	for _, c := range node.Children {
		if c != nil {
			release(c)
		}
	}
}
