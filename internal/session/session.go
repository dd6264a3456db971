// Package session loads the inputs of one traced run and reconstructs its tree.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jumbotrace/internal/config"
	"jumbotrace/internal/label"
	"jumbotrace/internal/metrics"
	"jumbotrace/internal/model"
	"jumbotrace/internal/objectstore"
	"jumbotrace/internal/sourceformat"
	"jumbotrace/internal/tree"

	"github.com/go-logr/logr"
	"github.com/minio/highwayhash"
	"github.com/viant/afs"
)

var fingerprintKey = []byte("jumbotrace-trace-fingerprint-key")

// Fingerprint identifies trace content across runs.
func Fingerprint(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

type options struct {
	log     logr.Logger
	metrics *metrics.Metrics
}

// Option configures Open and Load.
type Option func(*options)

// WithLogger sets the logger passed to every loading stage.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics counts loads into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Session holds everything loaded for one trace. Close releases the object store.
type Session struct {
	Inputs      Inputs
	Fingerprint uint64
	Labels      []label.Label
	Formats     *sourceformat.Map // nil without a source format file
	Namer       tree.FunctionNamer
	Objects     *objectstore.Store
	Root        *model.Event // set by Build

	log     logr.Logger
	metrics *metrics.Metrics
}

// Resolve combines discovery under cfg.Inputs.Project with explicitly
// configured paths. Without a project dir, the trace path must be set.
func Resolve(cfg *config.Config, dir string) (Inputs, error) {
	explicit := Inputs{
		Trace:        cfg.Inputs.Trace,
		SourceFormat: cfg.Inputs.SourceFormat,
		Objects:      cfg.Inputs.Objects,
		SourceFile:   cfg.Inputs.SourceFile,
	}
	if dir == "" {
		dir = cfg.Inputs.Project
	}
	if explicit.Trace != "" && dir == "" {
		return explicit, nil
	}
	found, err := Discover(dir)
	if err != nil {
		if explicit.Trace != "" {
			return explicit, nil
		}
		return Inputs{}, err
	}
	return found.Merge(explicit), nil
}

// Open reads and parses every input but does not reconstruct the tree.
func Open(ctx context.Context, in Inputs, opts ...Option) (*Session, error) {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Session{Inputs: in, Namer: sourceformat.TextNamer{}, log: o.log, metrics: o.metrics}
	fs := afs.New()

	if in.SourceFormat != "" {
		raw, err := fs.DownloadWithURL(ctx, in.SourceFormat)
		if err != nil {
			return nil, fmt.Errorf("failed to read source format: %w", err)
		}
		if s.Formats, err = sourceformat.Parse(raw, o.log); err != nil {
			return nil, err
		}
		o.log.V(1).Info("source format loaded", "path", in.SourceFormat, "nodes", s.Formats.Len())
	} else {
		o.log.Info("no source format, nodes render as placeholders")
	}

	if in.SourceFile != "" {
		src, err := fs.DownloadWithURL(ctx, in.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file: %w", err)
		}
		namer, err := sourceformat.NewJavaNamer(ctx, src)
		if err != nil {
			o.log.Error(err, "function names fall back to call text", "path", in.SourceFile)
		} else {
			s.Namer = namer
		}
	}

	raw, err := fs.DownloadWithURL(ctx, in.Trace)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	if s.Fingerprint, err = Fingerprint(raw); err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(in.Trace), ".csv") {
		s.Labels, err = label.ParseCSV(bytes.NewReader(raw), s.Formats, label.WithLogger(o.log))
	} else {
		s.Labels, err = label.Parse(raw, s.Formats, label.WithLogger(o.log))
	}
	if err != nil {
		s.malformed(err)
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.LabelsParsed.Add(float64(len(s.Labels)))
	}
	o.log.V(1).Info("trace parsed", "path", in.Trace, "labels", len(s.Labels), "fingerprint", fmt.Sprintf("%016x", s.Fingerprint))

	if s.Objects, err = objectstore.New(o.log); err != nil {
		return nil, err
	}
	if in.Objects != "" {
		raw, err := fs.DownloadWithURL(ctx, in.Objects)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to read object data: %w", err)
		}
		n, err := s.Objects.Load(ctx, raw)
		if err != nil {
			s.Close()
			return nil, err
		}
		if o.metrics != nil {
			o.metrics.ObjectsLoaded.Set(float64(n))
		}
	}
	return s, nil
}

// Build reconstructs the event tree from the parsed labels.
func (s *Session) Build() (*model.Event, error) {
	root, err := tree.Build(s.Labels, tree.WithFunctionNamer(s.Namer), tree.WithLogger(s.log))
	if err != nil {
		s.malformed(err)
		return nil, err
	}
	s.Root = root
	if s.metrics != nil {
		n := 0
		root.Walk(func(*model.Event) bool { n++; return true })
		s.metrics.EventsReconstructed.Add(float64(n))
		if s.Formats != nil {
			s.metrics.MissingNodes.Add(float64(s.Formats.Misses()))
		}
	}
	return root, nil
}

// Load opens the inputs and builds the tree.
func Load(ctx context.Context, in Inputs, opts ...Option) (*Session, error) {
	start := time.Now()
	s, err := Open(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := s.Build(); err != nil {
		s.Close()
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}
	return s, nil
}

func (s *Session) malformed(err error) {
	var mte *model.MalformedTraceError
	if s.metrics != nil && errors.As(err, &mte) {
		s.metrics.MalformedTraces.Inc()
	}
}

// Close releases the object store.
func (s *Session) Close() error {
	if s.Objects == nil {
		return nil
	}
	return s.Objects.Close()
}
