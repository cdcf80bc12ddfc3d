// Package fetcher loads opportunity tables from local files and remote
// sources. XLSX, CSV, and JSON inputs all reduce to the same raw table
// shape; schema normalization happens downstream.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Table is a raw spreadsheet: one header row plus data rows, all strings.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Option configures remote source handling.
type Option func(*loadOptions)

type loadOptions struct {
	timeout time.Duration
	ftpUser string
	ftpPass string
}

// WithTimeout bounds each remote download.
func WithTimeout(d time.Duration) Option {
	return func(o *loadOptions) { o.timeout = d }
}

// WithFTPCredentials sets the FTP login. Anonymous when unset.
func WithFTPCredentials(user, pass string) Option {
	return func(o *loadOptions) {
		o.ftpUser = user
		o.ftpPass = pass
	}
}

// Load reads an opportunity table from a path or URL. http(s) and ftp
// sources are downloaded to a temp file first; the format is picked by
// file extension (.xlsx, .csv).
func Load(ctx context.Context, source string, opts ...Option) (*Table, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	local, cleanup, err := materialize(ctx, source, lo)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	switch strings.ToLower(filepath.Ext(local)) {
	case ".xlsx":
		return ReadXLSX(local, XLSXOptions{})
	case ".csv":
		f, err := os.Open(local)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open csv")
		}
		defer f.Close()
		return ReadCSV(f, CSVOptions{})
	default:
		return nil, eris.Errorf("fetcher: unsupported table format %q", filepath.Ext(local))
	}
}

// materialize returns a local path for the source, downloading when it is
// remote. cleanup removes the temp file for remote sources and is a no-op
// for local paths.
func materialize(ctx context.Context, source string, lo loadOptions) (string, func(), error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // bare paths and windows drives
		return source, func() {}, nil
	}

	var download func(ctx context.Context, url, path string) (int64, error)
	switch u.Scheme {
	case "http", "https":
		download = NewHTTPFetcher(HTTPOptions{Timeout: lo.timeout}).DownloadToFile
	case "ftp":
		download = NewFTPFetcher(FTPOptions{Timeout: lo.timeout, User: lo.ftpUser, Pass: lo.ftpPass}).DownloadToFile
	case "file":
		return u.Path, func() {}, nil
	default:
		return "", nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}

	tmp, err := os.CreateTemp("", "closing-cli-*"+filepath.Ext(u.Path))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp")
	}
	tmp.Close()

	start := time.Now()
	n, err := download(ctx, source, tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	zap.L().Info("fetcher: downloaded source",
		zap.String("source", source),
		zap.Int64("bytes", n),
		zap.Duration("took", time.Since(start)),
	)
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func copyToFile(r io.Reader, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close()

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}
