package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/schollz/progressbar/v3"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/services"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// httpDownloader streams a URL to disk with an optional progress bar.
type httpDownloader struct {
	client       httpDoer
	showProgress bool
}

func (d *httpDownloader) fetch(ctx context.Context, sourceURL, dest string) error {
	client := d.client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "build request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP,
			fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)

	out, err := os.Create(partial)
	if err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "create output", err)
	}

	var sink io.Writer = out
	if d.showProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading")
		sink = io.MultiWriter(out, bar)
	}
	if _, err := io.Copy(sink, resp.Body); err != nil {
		out.Close()
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "stream body", err)
	}
	if err := out.Close(); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "flush output", err)
	}
	if !fileutil.NonEmptyFile(partial) {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "empty response body", nil)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineHTTP, "finalize download", err)
	}
	return nil
}
