package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"tabread/internal/charset"
	"tabread/internal/config"
	"tabread/internal/datasource/file"
	"tabread/internal/datasource/htmltable"
	"tabread/internal/datasource/httpds"
	"tabread/internal/probe"
	"tabread/internal/transformer"
)

// Open starts a read session over a raw byte stream. The encoding is
// resolved first (detected from a prefix sample, or taken from
// Options.Encoding), a decoded prefix is sampled for inference, and the
// session is fully configured before the first row demand. Leading
// byte order marks never reach the output. If r also implements
// io.Closer the session owns it and Close releases it.
//
// Errors:
//   - *config.ConfigError for invalid options, unknown presets or
//     encodings, unsupported dialects, and unknown processor steps.
//   - A wrapped tokenizer error when the header row cannot be read.
func Open(r io.Reader, opt Options) (*Reader, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	opt = opt.normalized()

	raw := bufio.NewReaderSize(r, charset.DetectBytes)
	sample, _ := raw.Peek(charset.DetectBytes)

	var det charset.Detection
	if opt.Encoding != "" {
		enc, canonical, err := charset.Resolve(opt.Encoding)
		if err != nil {
			return nil, config.Errorf("encoding", "%v", err)
		}
		det = charset.Detection{Name: canonical, Encoding: enc}
	} else {
		det = charset.Detect(sample)
	}

	return open(charset.NewReader(raw, det.Encoding), asCloser(r), det, opt)
}

// OpenChars starts a read session over an already decoded character
// stream. Charset detection and Options.Encoding are skipped; a leading
// UTF-8 byte order mark is still consumed.
func OpenChars(r io.Reader, opt Options) (*Reader, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	opt = opt.normalized()
	det := charset.Detection{Name: charset.DefaultName, Encoding: charset.Default()}
	return open(charset.NewReader(r, det.Encoding), asCloser(r), det, opt)
}

// OpenLocator opens a named resource and starts a session over it.
// http(s) URLs fetch through the HTTP datasource; anything else is a
// local file path. The session owns the stream either way.
func OpenLocator(ctx context.Context, locator string, opt Options) (*Reader, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if httpds.IsURL(locator) {
		rc, err = httpds.NewClient(httpds.Config{}).Open(ctx, locator)
	} else {
		rc, err = file.NewLocal(locator).Open(ctx)
	}
	if err != nil {
		return nil, err
	}
	r, err := Open(rc, opt)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return r, nil
}

func asCloser(r io.Reader) io.Closer {
	c, _ := r.(io.Closer)
	return c
}

// open runs the configuring phase: buffer the decoded stream, peek the
// checkpoint window, sniff the payload kind, and resolve dialect,
// names and chains before the first demand.
func open(text io.Reader, closer io.Closer, det charset.Detection, opt Options) (*Reader, error) {
	buffered := bufio.NewReaderSize(text, maxSampleBytes)
	prefix, _ := buffered.Peek(maxSampleBytes)
	partial := len(prefix) == maxSampleBytes

	r := &Reader{
		closer:    closer,
		detection: det,
		opt:       opt,
		started:   time.Now(),
	}

	if probe.SniffHTML(prefix) {
		if err := r.configureHTML(buffered); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := r.configureCSV(buffered, string(prefix), partial); err != nil {
		return nil, err
	}
	return r, nil
}

// configureCSV resolves the dialect against the sampled lines, builds
// the tokenizer, and finishes name and chain resolution. The sample is
// read by peeking only; the tokenizer starts at the first input byte.
func (r *Reader) configureCSV(in io.Reader, prefix string, partial bool) error {
	lines := probe.SplitLines(prefix, r.opt.Lookahead, partial)

	guess, _ := probe.GuessDelimiter(lines)
	dialect, err := r.opt.Preference.ResolveDialect(guess)
	if err != nil {
		return err
	}
	if err := validateDialect(dialect); err != nil {
		return err
	}
	r.dialect = dialect

	sampleRows := probe.TokenizeSample(lines, dialect.Comma, r.opt.LazyQuotes)
	if r.opt.Header && len(sampleRows) > 0 {
		sampleRows = sampleRows[1:]
	}
	r.analysis = r.analyze(guess, sampleRows)

	r.src = newCSVSource(in, dialect, r.opt.LazyQuotes)
	if err := r.resolveNames(); err != nil {
		return err
	}
	return r.compileChains(sampleRows)
}

// analyze fixes the inference outcome for the session. Guessed column
// specs are only computed when guessing is on; the delimiter guess is
// recorded either way.
func (r *Reader) analyze(guess rune, sampleRows [][]string) probe.Analysis {
	a := probe.Analysis{Delimiter: guess}
	if !r.opt.NoGuessTypes {
		a.Columns = probe.GuessColumnSpecs(sampleRows)
	}
	return a
}

// configureHTML parses the sniffed document and serves the largest
// table as the record source. Delimiter guessing does not apply; the
// preference still resolves so the session reports a dialect.
func (r *Reader) configureHTML(in io.Reader) error {
	table, err := htmltable.Parse(in)
	if err != nil {
		return err
	}
	r.src = table
	r.html = true

	dialect, err := r.opt.Preference.ResolveDialect(0)
	if err != nil {
		return err
	}
	if err := validateDialect(dialect); err != nil {
		return err
	}
	r.dialect = dialect

	if err := r.resolveNames(); err != nil {
		return err
	}
	sampleRows := table.Peek(r.opt.Lookahead)
	r.analysis = r.analyze(0, sampleRows)
	return r.compileChains(sampleRows)
}

// resolveNames fixes the field-name list, in priority order: header
// row, explicit list, positional. A header is consumed from the source
// so streaming starts at the first data record.
//
// Edge cases:
//   - Header on an empty input leaves the name list empty; the first
//     demand observes end-of-input.
//   - Duplicate resolved names are a configuration error; silently
//     keeping the last one would drop a column in map mode.
func (r *Reader) resolveNames() error {
	switch {
	case r.opt.Header:
		r.mapMode = true
		rec, err := r.src.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reader: header row: %w", err)
		}
		names := make([]string, len(rec))
		for i, cell := range rec {
			names[i] = r.opt.NameTransform(cell)
		}
		r.names = names
		return checkDuplicateNames("header", names)

	case len(r.opt.FieldNames) > 0:
		r.mapMode = true
		r.names = append([]string(nil), r.opt.FieldNames...)
		return checkDuplicateNames("field_names", r.names)

	default:
		// Vector mode: rows stay positional, columns are addressed by
		// index for specs.
		return nil
	}
}

// compileChains builds one decoder per resolved column: the explicit
// spec when one is bound to the column's name, else the guessed spec,
// else passthrough. The chain count always equals the column count.
func (r *Reader) compileChains(sampleRows [][]string) error {
	binding := r.names
	if !r.mapMode {
		width := 0
		if len(sampleRows) > 0 {
			width = len(sampleRows[0])
		}
		binding = make([]string, width)
		for i := range binding {
			binding[i] = strconv.Itoa(i)
		}
	}

	guessed := r.analysis.Columns

	chains := make([]transformer.Chain, len(binding))
	specs := make([][]string, len(binding))
	for i, name := range binding {
		spec, explicit := r.opt.Specs[name]
		if !explicit && i < len(guessed) {
			spec = guessed[i]
		}
		c, err := transformer.Compile(name, spec)
		if err != nil {
			return err
		}
		chains[i], specs[i] = c, spec
	}
	r.chains = chains
	r.colSpecs = specs
	return nil
}

func checkDuplicateNames(field string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return config.Errorf(field, "duplicate field name %q", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// validateDialect rejects dialects the tokenizer cannot honor rather
// than parsing with silently different semantics.
func validateDialect(d config.Dialect) error {
	if d.Quote != 0 && d.Quote != '"' {
		return config.Errorf("preference", "quote %q not supported, only '\"'", d.Quote)
	}
	switch d.Comma {
	case 0:
		return config.Errorf("preference", "delimiter required")
	case '\n', '\r', '"':
		return config.Errorf("preference", "delimiter %q not usable", d.Comma)
	}
	switch d.Terminator {
	case "", "\n", "\r\n":
	default:
		return config.Errorf("preference", "terminator %q not supported", d.Terminator)
	}
	return nil
}
