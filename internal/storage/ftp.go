package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher. Credentials default to anonymous
// when the URL carries no userinfo.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher downloads files from ftp:// storage paths.
type FTPFetcher struct {
	timeout time.Duration
}

func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FTPFetcher{timeout: timeout}
}

// Download retrieves an ftp:// URL and returns the file bytes.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: parse url %q", rawURL)
	}

	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":21"
	}

	user := "anonymous"
	pass := "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.timeout))
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: dial %s", host)
	}
	defer func() {
		if qerr := conn.Quit(); qerr != nil {
			zap.L().Debug("ftp: quit failed", zap.Error(qerr))
		}
	}()

	if err := conn.Login(user, pass); err != nil {
		return nil, eris.Wrapf(err, "ftp: login to %s as %s", host, user)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: retrieve %s", u.Path)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: read %s", u.Path)
	}
	return data, nil
}
