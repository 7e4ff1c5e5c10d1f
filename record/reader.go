package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/internal/options"
	"github.com/arloliu/seiskit/seis"
)

// Observer receives the outcome of every decoded record, typically to
// export metrics. samples is 0 when the record produced no samples.
type Observer interface {
	ObserveRecord(f format.Format, samples int, err error)
}

// ReaderConfig holds reader options.
type ReaderConfig struct {
	workers  int
	logger   *slog.Logger
	observer Observer
	parser   []ParserOption
}

// ReaderOption configures NewReader.
type ReaderOption = options.Option[*ReaderConfig]

// WithWorkers sets the number of decode goroutines. Defaults to GOMAXPROCS.
func WithWorkers(n int) ReaderOption {
	return options.New(func(c *ReaderConfig) error {
		if n < 1 {
			return fmt.Errorf("%w: %d workers", errs.ErrInvalidConfig, n)
		}
		c.workers = n

		return nil
	})
}

// WithLogger sets the reader logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ReaderOption {
	return options.New(func(c *ReaderConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidConfig)
		}
		c.logger = logger

		return nil
	})
}

// WithObserver registers an Observer for decoded records.
func WithObserver(o Observer) ReaderOption {
	return options.NoError(func(c *ReaderConfig) {
		c.observer = o
	})
}

// WithParserOptions passes options to the format parser.
func WithParserOptions(opts ...ParserOption) ReaderOption {
	return options.NoError(func(c *ReaderConfig) {
		c.parser = append(c.parser, opts...)
	})
}

// Reader decodes a buffer of concatenated records of one format and routes
// them into a container.
type Reader struct {
	parser Parser
	cfg    ReaderConfig
}

// NewReader creates a reader for format f.
func NewReader(f format.Format, opts ...ReaderOption) (*Reader, error) {
	cfg := &ReaderConfig{workers: runtime.GOMAXPROCS(0)}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	parser, err := ParserFor(f, cfg.parser...)
	if err != nil {
		return nil, err
	}

	return &Reader{parser: parser, cfg: *cfg}, nil
}

// Format returns the format the reader decodes.
func (r *Reader) Format() format.Format {
	return r.parser.Format()
}

// Warning is a record that was skipped or lost its samples.
type Warning struct {
	// Offset is the byte offset of the record in the input buffer.
	Offset int64
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("record at offset %d: %v", w.Offset, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// Report summarizes a Read.
type Report struct {
	// Records is the number of records routed into the container.
	Records int
	// Samples is the number of samples those records carried.
	Samples int
	// Warnings lists the records that were skipped or lost samples.
	Warnings []Warning
	// Truncated is set when a record boundary could not be found; nothing
	// after Warnings' last offset was read.
	Truncated bool
}

// Err joins the warnings, or returns nil.
func (r Report) Err() error {
	all := make([]error, len(r.Warnings))
	for i, w := range r.Warnings {
		all[i] = w
	}

	return errors.Join(all...)
}

type span struct {
	off, end int
}

type result struct {
	recs []*Record
	err  error
	done chan struct{}
}

// Read decodes every record in data and adds it to c.
//
// Records are framed sequentially, decoded on the worker pool and routed into
// c in input order, so merges behave exactly as a sequential read would. A
// record that fails to decode is reported and skipped; a record whose payload
// is corrupt is routed without samples. Read returns an error only when ctx
// is done; everything routed before that stays in c.
func (r *Reader) Read(ctx context.Context, data []byte, c *seis.Container) (Report, error) {
	report := Report{}

	spans, err := r.frame(ctx, data)
	if err != nil {
		var warn Warning
		if !errors.As(err, &warn) {
			return report, err
		}
		report.Warnings = append(report.Warnings, warn)
		report.Truncated = true
		r.cfg.logger.Warn("record framing stopped",
			slog.String("format", r.parser.Format().String()),
			slog.Int64("offset", warn.Offset),
			slog.Any("error", warn.Err))
	}
	if len(spans) == 0 {
		return report, nil
	}

	results := make([]result, len(spans))
	for i := range results {
		results[i].done = make(chan struct{})
	}

	jobs := make(chan int)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i := range spans {
			select {
			case jobs <- i:
			case <-stop:
				return
			}
		}
	}()

	for range min(r.cfg.workers, len(spans)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := &results[i]
				if ctx.Err() == nil {
					res.recs, res.err = r.parse(data[spans[i].off:spans[i].end])
				}
				close(res.done)
			}
		}()
	}

	defer func() {
		close(stop)
		wg.Wait()
	}()

	for i, s := range spans {
		select {
		case <-results[i].done:
		case <-ctx.Done():
			return report, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := results[i]
		if len(res.recs) == 0 {
			if res.err != nil {
				r.route(c, s, nil, res.err, &report)
			}

			continue
		}
		for _, rec := range res.recs {
			r.route(c, s, rec, res.err, &report)
		}
	}

	return report, nil
}

// parse decodes one framed record into the channels it holds.
func (r *Reader) parse(data []byte) ([]*Record, error) {
	if mp, ok := r.parser.(MultiParser); ok {
		recs, _, err := mp.ParseAll(data)

		return recs, err
	}

	rec, _, err := r.parser.Parse(data)
	if rec == nil {
		return nil, err
	}

	return []*Record{rec}, err
}

// frame splits data into record spans. A framing failure is returned as a
// Warning after the spans found so far.
func (r *Reader) frame(ctx context.Context, data []byte) ([]span, error) {
	var spans []span
	for off := 0; off < len(data); {
		if err := ctx.Err(); err != nil {
			return spans, err
		}

		n, err := r.parser.Frame(data[off:])
		if err == nil && n <= 0 {
			err = errs.Malformed(r.parser.Format().String(), 0, "empty record")
		}
		if err != nil {
			return spans, Warning{Offset: int64(off), Err: err}
		}
		spans = append(spans, span{off: off, end: off + n})
		off += n
	}

	return spans, nil
}

func (r *Reader) route(c *seis.Container, s span, rec *Record, err error, report *Report) {
	if r.cfg.observer != nil {
		samples := 0
		if rec != nil {
			samples = rec.Len()
		}
		r.cfg.observer.ObserveRecord(r.parser.Format(), samples, err)
	}

	if err != nil {
		report.Warnings = append(report.Warnings, Warning{Offset: int64(s.off), Err: err})
		msg := "record skipped"
		if rec != nil {
			msg = "record samples dropped"
		}
		r.cfg.logger.Warn(msg,
			slog.String("format", r.parser.Format().String()),
			slog.Int("offset", s.off),
			slog.Any("error", err))
		if rec == nil {
			return
		}
	}

	ch, err := rec.Channel()
	if err == nil {
		_, err = c.Add(ch)
	}
	if err != nil {
		report.Warnings = append(report.Warnings, Warning{Offset: int64(s.off), Err: err})
		r.cfg.logger.Warn("record not routed",
			slog.String("id", rec.ID()),
			slog.Int("offset", s.off),
			slog.Any("error", err))

		return
	}

	report.Records++
	report.Samples += ch.Len()
}
