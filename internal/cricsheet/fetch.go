package cricsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"

	"go.uber.org/zap"
)

const DefaultSourceURL = "https://cricsheet.org/downloads/all_csv2.zip"

// RawStager copies the untouched source archive into the data lake and
// returns its location.
type RawStager interface {
	StageRaw(ctx context.Context, localPath, name, runID string) (string, error)
}

type Fetcher struct {
	URL     string
	Client  *http.Client
	Stager  RawStager // optional
	TempDir string
	Log     *zap.Logger
}

// Fetch downloads the archive, stages the raw copy, and opens it. The caller
// must Close the returned Archive, which also removes the local file.
func (f *Fetcher) Fetch(ctx context.Context, runID string) (*Archive, string, error) {
	src := f.URL
	if src == "" {
		src = DefaultSourceURL
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	log := f.Log
	if log == nil {
		log = zap.NewNop()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", &FetchError{URL: src, Reason: "build request", Err: err}
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: src, Reason: "http get", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, "", &FetchError{URL: src, Reason: fmt.Sprintf("http %d", res.StatusCode)}
	}

	tmp, err := os.CreateTemp(f.TempDir, "cricsheet-*.zip")
	if err != nil {
		return nil, "", &FetchError{URL: src, Reason: "create temp file", Err: err}
	}
	n, err := io.Copy(tmp, res.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, "", &FetchError{URL: src, Reason: "download body", Err: err}
	}
	log.Info("archive downloaded", zap.String("url", src), zap.Int64("bytes", n))

	staged := ""
	if f.Stager != nil {
		staged, err = f.Stager.StageRaw(ctx, tmp.Name(), archiveName(src), runID)
		if err != nil {
			_ = os.Remove(tmp.Name())
			return nil, "", &FetchError{URL: src, Reason: "stage raw archive", Err: err}
		}
		log.Info("raw archive staged", zap.String("location", staged))
	}

	a, err := OpenArchive(tmp.Name(), true)
	if err != nil {
		_ = os.Remove(tmp.Name())
		reason := "not a zip archive"
		if errors.Is(err, ErrDuplicateMatch) {
			reason = "duplicate match entry"
		}
		return nil, "", &FetchError{URL: src, Reason: reason, Err: err}
	}
	if len(a.Matches) == 0 {
		_ = a.Close()
		return nil, "", &FetchError{URL: src, Reason: "archive holds no match files"}
	}
	return a, staged, nil
}

func archiveName(src string) string {
	u, err := url.Parse(src)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return "archive.zip"
	}
	return path.Base(u.Path)
}
