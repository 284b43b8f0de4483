// Package acquisition runs a producer/mirror loop over the data-object core. A producer
// goroutine computes sample frames; the owning goroutine writes each frame into an
// acquisition buffer, refreshes a remote mirror of it and reports what the mirror holds.
package acquisition

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/dataobjects/internal/config"
	"github.com/zeusync/dataobjects/internal/core/dataset"
	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
	"github.com/zeusync/dataobjects/internal/core/stream"
	"github.com/zeusync/dataobjects/internal/script"
)

// Frame is one block of samples handed from the producer to the owner.
type Frame struct {
	Round       int
	FirstSample uint64
	Values      []float64
}

// Report describes the mirror after a frame was acquired and refreshed.
type Report struct {
	Round       int
	FirstSample uint64
	Count       uint64
	Checksum    uint64
	Min, Max    fields.Scalar
	// Mirrored is true when the mirror's bytes match the acquisition buffer.
	Mirrored bool
}

// Pipeline owns the entities of one acquisition. Entities are only touched by the goroutine
// calling New and Run; the producer goroutine only computes values.
type Pipeline struct {
	log      log.Log
	registry *models.Registry
	cfg      config.AcquisitionConfig
	typ      fields.Type

	device    *stream.Generator
	buffer    *dataset.DataSet
	mirror    *dataset.DataSet
	reference *dataset.DataSet

	produceFn func(uint64) float64
	closers   []func()
}

// New registers the acquisition entities: a generator standing in for the device, an
// acquisition buffer with an index buffer, a remote mirror of the buffer and a reference
// mirror of the device.
func New(registry *models.Registry, cfg *config.Config) (*Pipeline, error) {
	p := &Pipeline{
		log:      registry.Log().With(log.String("component", "acquisition")),
		registry: registry,
		cfg:      cfg.Acquisition,
		typ:      cfg.ElementType(),
	}

	ownerFn, err := p.valueFunc()
	if err != nil {
		return nil, err
	}
	if p.produceFn, err = p.valueFunc(); err != nil {
		p.Close()
		return nil, err
	}

	if err = p.setup(cfg.Registry.Context, ownerFn); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// valueFunc compiles a private copy of the configured expression; Lua states are not shared
// between goroutines.
func (p *Pipeline) valueFunc() (func(uint64) float64, error) {
	if p.cfg.Expression == "" {
		return stream.Ramp, nil
	}
	f, err := script.Compile(p.cfg.Expression, p.log)
	if err != nil {
		return nil, fmt.Errorf("acquisition expression: %w", err)
	}
	p.closers = append(p.closers, f.Close)
	return f.Value, nil
}

func (p *Pipeline) setup(scope string, fn func(uint64) float64) error {
	typ, ok := p.registry.Type(stream.GeneratorTypeName)
	if !ok {
		return fmt.Errorf("create device: %w", models.ErrTypeNotFound)
	}
	e, _ := p.registry.Create(typ)
	if p.device, ok = e.(*stream.Generator); !ok {
		return fmt.Errorf("create device: %w", models.ErrTypeNotFound)
	}
	p.device.SetName("Device")
	if err := p.registry.Add(p.device, nil, typ, scope, true); err != nil {
		return fmt.Errorf("add device: %w", err)
	}
	p.device.SetFunc(fn)
	p.device.Configure(p.typ, 0, p.cfg.Elements)

	var err error
	if p.buffer, err = dataset.Create(p.registry, p.device, scope, true); err != nil {
		return fmt.Errorf("create buffer: %w", err)
	}
	p.buffer.SetName("Acquisition")
	p.buffer.CreateBuffer(p.typ, 0, p.cfg.Elements)

	index, err := dataset.Create(p.registry, p.buffer, scope, true)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	index.SetName("Acquisition index")
	index.CreateBufferAsIndex(0, p.cfg.Elements)
	p.buffer.SetIndexBuffer(index)

	if p.mirror, err = dataset.CreateRemote(p.registry, p.buffer, nil, true); err != nil {
		return fmt.Errorf("create mirror: %w", err)
	}
	p.mirror.SetName("Mirror")

	if p.reference, err = dataset.CreateRemote(p.registry, p.device, nil, true); err != nil {
		return fmt.Errorf("create reference: %w", err)
	}
	p.reference.SetName("Reference")
	if err = p.reference.Refresh(); err != nil {
		return fmt.Errorf("refresh reference: %w", err)
	}
	return nil
}

// Reference is the mirror of the device's first window.
func (p *Pipeline) Reference() *dataset.DataSet { return p.reference }

func (p *Pipeline) Mirror() *dataset.DataSet { return p.mirror }

func (p *Pipeline) Buffer() *dataset.DataSet { return p.buffer }

// Run acquires the configured number of rounds, or until ctx is done when rounds is zero.
// Frames are consumed on the calling goroutine; a failed frame stops the producer.
func (p *Pipeline) Run(ctx context.Context) ([]Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan Frame)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(frames)
		return p.produce(gctx, frames)
	})

	var (
		reports    []Report
		consumeErr error
	)
	for f := range frames {
		r, err := p.consume(f)
		if err != nil {
			consumeErr = err
			cancel()
			break
		}
		reports = append(reports, r)
	}

	err := g.Wait()
	if consumeErr != nil {
		return reports, consumeErr
	}
	return reports, err
}

func (p *Pipeline) produce(ctx context.Context, frames chan<- Frame) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	n := p.cfg.Elements
	for round := 0; p.cfg.Rounds == 0 || round < p.cfg.Rounds; round++ {
		f := Frame{Round: round, FirstSample: uint64(round) * n, Values: make([]float64, n)}
		for i := range f.Values {
			f.Values[i] = p.produceFn(f.FirstSample + uint64(i))
		}

		select {
		case frames <- f:
		case <-ctx.Done():
			return ctx.Err()
		}

		if p.cfg.Rounds != 0 && round == p.cfg.Rounds-1 {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Pipeline) consume(f Frame) (Report, error) {
	for i, v := range f.Values {
		p.buffer.SetValueAt(uint64(i), v)
	}
	props := p.buffer.Properties()
	props.Set("round", f.Round)
	props.Set("first_sample", f.FirstSample)

	if err := p.mirror.Refresh(); err != nil {
		return Report{}, fmt.Errorf("refresh mirror in round %d: %w", f.Round, err)
	}

	lo, hi, _ := p.mirror.MinMax()
	r := Report{
		Round:       f.Round,
		FirstSample: f.FirstSample,
		Count:       p.mirror.Count(),
		Checksum:    p.mirror.Checksum(),
		Min:         lo,
		Max:         hi,
		Mirrored:    p.mirror.Checksum() == p.buffer.Checksum(),
	}
	p.log.Info("Frame mirrored",
		log.Int("round", r.Round),
		log.Uint64("first_sample", r.FirstSample),
		log.Uint64("checksum", r.Checksum),
		log.Stringer("min", r.Min),
		log.Stringer("max", r.Max),
		log.Bool("mirrored", r.Mirrored))
	return r, nil
}

// Close releases the expression interpreters. Entities stay registered.
func (p *Pipeline) Close() {
	for _, c := range p.closers {
		c()
	}
	p.closers = nil
}
