package scanner

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"gqlmap/internal/engine/coverage"
	"gqlmap/internal/engine/extract"
	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/engine/parser"
	"gqlmap/internal/engine/registry"
	"gqlmap/internal/engine/resolver"
	"gqlmap/internal/shared/observability"
)

// Options tune the two-phase scan. Zero values fall back to defaults.
type Options struct {
	Indicators        []string
	ExtraHookPatterns []string
	AliasRegexCap     int
	BatchSize         int
	Parallelism       int
}

const (
	defaultAliasRegexCap = 2000
	defaultBatchSize     = 50
	defaultParallelism   = 8
)

func (o Options) withDefaults() Options {
	if len(o.Indicators) == 0 {
		o.Indicators = defaultIndicators
	}
	if o.AliasRegexCap <= 0 {
		o.AliasRegexCap = defaultAliasRegexCap
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.Parallelism <= 0 {
		o.Parallelism = defaultParallelism
	}
	return o
}

// SSRUsage marks an operation consumed through a server-side data
// loader rather than a hook; downstream reports tag these separately.
type SSRUsage struct {
	Operation string `json:"operation"`
	File      string `json:"file"`
}

// Report accumulates scan outcomes beyond what the registry stores.
type Report struct {
	phase1 atomic.Int64
	phase2 atomic.Int64

	mu  sync.Mutex
	ssr []SSRUsage
}

func (r *Report) Phase1Usages() int64 { return r.phase1.Load() }
func (r *Report) Phase2Usages() int64 { return r.phase2.Load() }

func (r *Report) SSRUsages() []SSRUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SSRUsage, len(r.ssr))
	copy(out, r.ssr)
	return out
}

func (r *Report) addSSR(operation, file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ssr = append(r.ssr, SSRUsage{Operation: operation, File: file})
}

// graphqlTags mark inline GraphQL at consumer call sites.
var graphqlTags = map[string]bool{
	"gql":     true,
	"graphql": true,
}

// Scanner sweeps the repository in two passes: a cheap combined-regex
// pass that only trusts Document-suffixed matches, then a precise AST
// pass that confirms everything else structurally.
type Scanner struct {
	parser  *parser.Parser
	reg     *registry.Registry
	res     *resolver.Resolver
	metrics *coverage.Metrics
	opts    Options
	hooks   *hookMatcher
}

func New(p *parser.Parser, reg *registry.Registry, metrics *coverage.Metrics, opts Options) (*Scanner, error) {
	opts = opts.withDefaults()
	hooks, err := newHookMatcher(opts.ExtraHookPatterns)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		parser:  p,
		reg:     reg,
		res:     resolver.New(reg),
		metrics: metrics,
		opts:    opts,
		hooks:   hooks,
	}, nil
}

// Scan visits every file once per phase. Per-file failures are counted
// and skipped; the scan itself only fails on context cancellation.
func (s *Scanner) Scan(ctx context.Context, files []string) (*Report, error) {
	report := &Report{}
	ix := s.reg.AliasIndex()

	coarse := newCoarseMatcher(ix.Tokens(), s.opts.AliasRegexCap)
	if coarse.skipped {
		s.metrics.CombinedRegexSkipped.Store(true)
		slog.Info("alias universe exceeds regex cap, coarse pass degraded to pre-filter only",
			"aliases", len(ix.Tokens()), "cap", s.opts.AliasRegexCap)
	}

	ctx, span := observability.Tracer.Start(ctx, "scanner.CoarsePass", trace.WithAttributes(
		attribute.Int("files", len(files)),
		attribute.Bool("regex_skipped", coarse.skipped),
	))
	start := time.Now()
	err := s.runBatches(ctx, files, func(path string, content []byte) {
		s.coarsePass(report, coarse, ix, path, content)
	})
	span.SetAttributes(attribute.Int64("usages", report.Phase1Usages()))
	span.End()
	observability.ScanDuration.WithLabelValues("coarse").Observe(time.Since(start).Seconds())
	if err != nil {
		return report, err
	}

	ctx, span = observability.Tracer.Start(ctx, "scanner.PrecisePass", trace.WithAttributes(
		attribute.Int("files", len(files)),
	))
	start = time.Now()
	err = s.runBatches(ctx, files, func(path string, content []byte) {
		s.precisePass(report, path, content)
	})
	span.SetAttributes(attribute.Int64("usages", report.Phase2Usages()))
	span.End()
	observability.ScanDuration.WithLabelValues("precise").Observe(time.Since(start).Seconds())

	return report, err
}

// runBatches reads and processes files in bounded batches so peak
// memory and descriptor usage stay flat on large repositories.
func (s *Scanner) runBatches(ctx context.Context, files []string, fn func(path string, content []byte)) error {
	for begin := 0; begin < len(files); begin += s.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := begin + s.opts.BatchSize
		if end > len(files) {
			end = len(files)
		}

		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Parallelism)
		for _, path := range files[begin:end] {
			g.Go(func() error {
				content, err := os.ReadFile(path)
				if err != nil {
					slog.Debug("skipping unreadable file", "path", path, "error", err)
					return nil
				}
				fn(path, content)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// coarsePass runs the combined regex once per candidate file. Only
// Document-suffixed tokens are promoted; bare names and Query/Mutation
// suffixes collide with type imports and wait for Phase 2. Files that
// declare an operation never count as its consumers, so generated
// modules and other declaration sites are excluded here.
func (s *Scanner) coarsePass(report *Report, coarse *coarseMatcher, ix *registry.AliasIndex, path string, content []byte) {
	s.metrics.FilesScanned.Add(1)
	observability.FilesScannedTotal.Inc()

	if !containsIndicator(content, s.opts.Indicators) {
		return
	}
	if extract.IsCodegenFile(path, content) {
		return
	}

	for _, token := range coarse.Match(content) {
		if !ix.IsDocumentToken(token) {
			continue
		}
		key, ok := ix.Resolve(token)
		if !ok {
			continue
		}
		if op := s.reg.Lookup(key); op == nil || op.IsDeclaredIn(path) {
			continue
		}
		if s.reg.RecordUsage(key, path) {
			report.phase1.Add(1)
			observability.UsagesRecordedTotal.WithLabelValues("coarse").Inc()
		}
	}
}

// precisePass parses the file and confirms usages structurally.
// Generated modules are skipped: the hook wrappers codegen emits around
// its own Document exports are declarations, not call sites.
func (s *Scanner) precisePass(report *Report, path string, content []byte) {
	if !containsIndicator(content, s.opts.Indicators) {
		return
	}
	if !s.parser.IsSupportedPath(path) {
		return
	}
	if extract.IsCodegenFile(path, content) {
		return
	}

	src, err := s.parser.ParseFile(path, content)
	if err != nil {
		s.metrics.ParseFailures.Add(1)
		observability.SourceParseFailuresTotal.Inc()
		slog.Debug("skipping unparseable consumer file", "path", path, "error", err)
		return
	}
	defer src.Close()

	scope := resolver.NewFileScope()
	ssrDepth := 0

	var walker *parser.Walker
	walker = parser.NewWalker(map[string]parser.NodeHandler{
		"tagged_template_expression": func(ctx *parser.WalkContext, node *sitter.Node) bool {
			s.bindTaggedTemplate(ctx, node, scope)
			return false
		},
		"call_expression": func(ctx *parser.WalkContext, node *sitter.Node) bool {
			return s.handleCall(report, ctx, node, scope, path, ssrDepth > 0)
		},
		"function_declaration": func(ctx *parser.WalkContext, node *sitter.Node) bool {
			if ctx.Text(node.ChildByFieldName("name")) != "getServerSideProps" {
				return false
			}
			ssrDepth++
			for i := uint(0); i < node.ChildCount(); i++ {
				walker.Walk(ctx, node.Child(i))
			}
			ssrDepth--
			return true
		},
	})
	walker.Walk(&parser.WalkContext{Source: content, FilePath: path}, src.Root())
}

// bindTaggedTemplate records `const Query = gql\`...\`` bindings in the
// file scope so later useQuery(Query) calls resolve to the operation.
func (s *Scanner) bindTaggedTemplate(ctx *parser.WalkContext, node *sitter.Node, scope *resolver.FileScope) {
	tagged, ok := parser.Classify(node, ctx.Source).(*parser.TaggedTemplate)
	if !ok {
		return
	}
	tag, ok := tagged.Tag.(*parser.Ident)
	if !ok || !graphqlTags[tag.Name] {
		return
	}
	s.bindInlineText(ctx, tagged.Template, scope)
}

func (s *Scanner) bindInlineText(ctx *parser.WalkContext, text string, scope *resolver.FileScope) {
	decl := ctx.EnclosingDecl()
	if decl == "" || text == "" {
		return
	}
	name, _, ok := graphql.OperationNameFromText(text)
	if !ok {
		return
	}
	if key, ok := s.reg.AliasIndex().Resolve(name); ok {
		scope.Bind(decl, key)
	}
}

func (s *Scanner) handleCall(report *Report, ctx *parser.WalkContext, node *sitter.Node, scope *resolver.FileScope, path string, inSSR bool) bool {
	call, ok := parser.Classify(node, ctx.Source).(*parser.CallExpr)
	if !ok || call.Callee == nil {
		return false
	}

	name := call.CalleeName()

	// gql(`...`) binding form; subtree fully handled.
	if graphqlTags[name] {
		if lit, ok := parser.Classify(call.FirstArg(), ctx.Source).(*parser.TemplateLit); ok {
			s.bindInlineText(ctx, lit.Text, scope)
		}
		return true
	}

	if s.hooks.isGraphQLHook(name) {
		key, strategy := s.res.ResolveCall(call, ctx.Source, scope)
		observability.ResolutionsTotal.WithLabelValues(strategy).Inc()
		if key != "" && s.reg.RecordUsage(key, path) {
			report.phase2.Add(1)
			observability.UsagesRecordedTotal.WithLabelValues("precise").Inc()
		}
		return false
	}

	if clientMethods[name] {
		if _, isMember := call.Callee.(*parser.MemberExpr); isMember {
			if doc := documentArgument(call, ctx.Source); doc != nil {
				if key := s.res.ResolveExpr(doc, ctx.Source, scope); key != "" {
					if s.reg.RecordUsage(key, path) {
						report.phase2.Add(1)
						observability.UsagesRecordedTotal.WithLabelValues("precise").Inc()
					}
					if inSSR || stackContains(ctx.DeclStack, "getServerSideProps") {
						report.addSSR(key, path)
					}
				}
			}
		}
	}
	return false
}

// documentArgument digs the operation document out of a direct client
// call's object-literal argument: client.query({ query: X }).
func documentArgument(call *parser.CallExpr, source []byte) *sitter.Node {
	arg := call.FirstArg()
	if arg == nil || arg.Kind() != "object" {
		return nil
	}

	for i := uint(0); i < arg.ChildCount(); i++ {
		pair := arg.Child(i)
		if pair.Kind() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		if key == nil {
			continue
		}
		keyText := string(source[key.StartByte():key.EndByte()])
		keyText = trimQuotes(keyText)
		if documentKeys[keyText] {
			return pair.ChildByFieldName("value")
		}
	}
	return nil
}

func trimQuotes(value string) string {
	if len(value) >= 2 {
		switch value[0] {
		case '\'', '"':
			return value[1 : len(value)-1]
		}
	}
	return value
}

func stackContains(stack []string, name string) bool {
	for _, entry := range stack {
		if entry == name {
			return true
		}
	}
	return false
}
