package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const ftpDialTimeout = 30 * time.Second

// ftpSource retrieves one file over FTP, or explicit-TLS FTP for ftps.
// Without credentials in the URL it logs in anonymously.
type ftpSource struct {
	host     string
	path     string
	user     string
	password string
	useTLS   bool
}

func newFTPSource(u *url.URL) (Source, error) {
	if u.Path == "" || u.Path == "/" {
		return nil, newTransferError("ftp", "parse", errors.New("file path is required"))
	}
	user, password := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			password = p
		}
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "21")
	}
	return &ftpSource{
		host:     host,
		path:     u.Path,
		user:     user,
		password: password,
		useTLS:   strings.EqualFold(u.Scheme, "ftps"),
	}, nil
}

func (s *ftpSource) connect(ctx context.Context) (*ftp.ServerConn, error) {
	opts := []ftp.DialOption{
		ftp.DialWithTimeout(ftpDialTimeout),
		ftp.DialWithContext(ctx),
	}
	if s.useTLS {
		hostname := s.host
		if h, _, err := net.SplitHostPort(s.host); err == nil {
			hostname = h
		}
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName: hostname,
			MinVersion: tls.VersionTLS12,
		}))
	}
	conn, err := ftp.Dial(s.host, opts...)
	if err != nil {
		return nil, newTransferError("ftp", "connect", err)
	}
	if err := conn.Login(s.user, s.password); err != nil {
		conn.Quit()
		return nil, newTransferError("ftp", "login", err)
	}
	return conn, nil
}

func (s *ftpSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, 0, err
	}
	size, err := conn.FileSize(s.path)
	if err != nil {
		// SIZE is optional; fall back to an unknown length.
		size = -1
	}
	resp, err := conn.Retr(s.path)
	if err != nil {
		conn.Quit()
		return nil, 0, newTransferError("ftp", "retr", err)
	}
	return &ftpBody{
		r:    contextReader{ctx: ctx, r: resp},
		resp: resp,
		conn: conn,
	}, size, nil
}

// ftpBody closes the data connection and then quits the control connection.
type ftpBody struct {
	r    io.Reader
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (b *ftpBody) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

func (b *ftpBody) Close() error {
	err := b.resp.Close()
	if qerr := b.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}
