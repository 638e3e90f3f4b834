package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/effectrack/dsp/buffer"
)

// DefaultConcurrency bounds the parallel fetches of LoadAll.
const DefaultConcurrency = 4

// Loader fetches and decodes audio assets.
type Loader struct {
	// Client is used for http(s) URLs. Nil selects http.DefaultClient.
	Client *http.Client
	// Concurrency bounds LoadAll. Values <= 0 select DefaultConcurrency.
	Concurrency int
	// Logger receives load failures. Nil discards them.
	Logger logrus.FieldLogger
}

// Fetch returns the raw bytes behind location.
func (l *Loader) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return readFile(ctx, location)
	}

	switch u.Scheme {
	case "file":
		return readFile(ctx, u.Path)
	case "http", "https":
		return l.get(ctx, location)
	default:
		return nil, fmt.Errorf("assets: %q: unsupported scheme %q", location, u.Scheme)
	}
}

// Load fetches location and decodes it.
func (l *Loader) Load(ctx context.Context, location string) (*buffer.AudioBuffer, error) {
	data, err := l.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	buf, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %q: %w", location, err)
	}

	return buf, nil
}

// LoadLibrary fetches an IRLB file, or a single audio file that becomes a
// one-entry library named after the file.
func (l *Loader) LoadLibrary(ctx context.Context, location string) ([]Impulse, error) {
	data, err := l.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	if Sniff(data) == FormatIRLib {
		irs, err := ReadIRLibrary(data)
		if err != nil {
			err = fmt.Errorf("assets: decode %q: %w", location, err)
		}

		return irs, err
	}

	buf, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %q: %w", location, err)
	}

	return []Impulse{{Name: baseName(location), Buffer: buf}}, nil
}

// LoadAll loads every named location concurrently. It returns the buffers
// that loaded and the joined errors of those that did not; one failure
// never cancels the other loads.
func (l *Loader) LoadAll(ctx context.Context, locations map[string]string) (map[string]*buffer.AudioBuffer, error) {
	var (
		mu   sync.Mutex
		out  = make(map[string]*buffer.AudioBuffer, len(locations))
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency())

	for name, location := range locations {
		g.Go(func() error {
			buf, err := l.Load(ctx, location)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				l.logger().WithError(err).WithField("name", name).Error("asset load failed")
				errs = append(errs, fmt.Errorf("%s: %w", name, err))

				return nil
			}

			out[name] = buf

			return nil
		})
	}

	_ = g.Wait()

	return out, errors.Join(errs...)
}

func (l *Loader) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("assets: %q: %w", location, err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %q: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assets: fetch %q: %s", location, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %q: %w", location, err)
	}

	return data, nil
}

func (l *Loader) concurrency() int {
	if l.Concurrency <= 0 {
		return DefaultConcurrency
	}

	return l.Concurrency
}

func (l *Loader) logger() logrus.FieldLogger {
	if l.Logger == nil {
		lg := logrus.New()
		lg.SetOutput(io.Discard)

		return lg
	}

	return l.Logger
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}

	return data, nil
}

func baseName(location string) string {
	name := location
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}

	return name
}
