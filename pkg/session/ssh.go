package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/fleetcmd/fleetcmd/pkg/inventory"
	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// SSHDialer opens interactive SSH shells to devices. It is shared
// read-only across all workers in a run.
type SSHDialer struct {
	ConnectTimeout time.Duration

	// UseKeys switches from password to public-key authentication.
	// KeyFile defaults to ~/.ssh/id_rsa when empty.
	UseKeys bool
	KeyFile string
}

// Dial connects to rec and brings up a pty shell ready for prompt-driven
// exchange. Connection failures wrap ErrConnect, credential rejection
// wraps ErrAuth.
func (d *SSHDialer) Dial(ctx context.Context, rec inventory.Record) (Transport, error) {
	timeout := d.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	auth, err := d.authMethods(rec)
	if err != nil {
		return nil, err
	}
	config := &ssh.ClientConfig{
		User: rec.Username,
		Auth: auth,
		// Fleet devices are reached by management address; host keys
		// are not tracked, matching the tool's historical behavior.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	netDialer := &net.Dialer{Timeout: timeout}
	conn, err := netDialer.DialContext(ctx, "tcp", rec.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", util.ErrConnect, rec.Addr(), err)
	}

	conn.SetDeadline(time.Now().Add(timeout))
	cc, chans, reqs, err := ssh.NewClientConn(conn, rec.Addr(), config)
	if err != nil {
		conn.Close()
		if isAuthFailure(err) {
			return nil, fmt.Errorf("%w: %s: %v", util.ErrAuth, rec.Addr(), err)
		}
		return nil, fmt.Errorf("%w: handshake with %s: %v", util.ErrConnect, rec.Addr(), err)
	}
	conn.SetDeadline(time.Time{})

	client := ssh.NewClient(cc, chans, reqs)
	t, err := newShellTransport(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s: %v", util.ErrConnect, rec.Addr(), err)
	}
	return t, nil
}

func (d *SSHDialer) authMethods(rec inventory.Record) ([]ssh.AuthMethod, error) {
	if d.UseKeys {
		keyFile := d.KeyFile
		if keyFile == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("%w: locate default key: %v", util.ErrAuth, err)
			}
			keyFile = filepath.Join(home, ".ssh", "id_rsa")
		}
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read key %s: %v", util.ErrAuth, keyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse key %s: %v", util.ErrAuth, keyFile, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	// Network gear often serves keyboard-interactive instead of plain
	// password auth; answer every challenge with the password.
	password := rec.Password
	return []ssh.AuthMethod{
		ssh.Password(password),
		ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				answers[i] = password
			}
			return answers, nil
		}),
	}, nil
}

func isAuthFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied")
}

// shellTransport runs one pty shell over an SSH connection. A background
// goroutine pumps stdout into chunks; ReadUntil consumes them against a
// persistent buffer so over-reads carry into the next call.
type shellTransport struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  chan []byte
	done    chan struct{}
	once    sync.Once
	buf     strings.Builder
}

func newShellTransport(client *ssh.Client) (*shellTransport, error) {
	sess, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("session: %v", err)
	}
	// Network CLIs require a pty; a wide terminal avoids wrapped output.
	if err := sess.RequestPty("vt100", 40, 200, ssh.TerminalModes{}); err != nil {
		sess.Close()
		return nil, fmt.Errorf("request pty: %v", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("stdin: %v", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("stdout: %v", err)
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("shell: %v", err)
	}

	t := &shellTransport{
		client:  client,
		session: sess,
		stdin:   stdin,
		chunks:  make(chan []byte, 64),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(t.chunks)
		b := make([]byte, 4096)
		for {
			n, err := stdout.Read(b)
			if n > 0 {
				data := make([]byte, n)
				copy(data, b[:n])
				select {
				case t.chunks <- data:
				case <-t.done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return t, nil
}

func (t *shellTransport) Send(line string) error {
	if _, err := t.stdin.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("%w: send: %v", util.ErrTransport, err)
	}
	return nil
}

func (t *shellTransport) ReadUntil(pattern *regexp.Regexp, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if pattern.MatchString(t.buf.String()) {
			out := t.buf.String()
			t.buf.Reset()
			return out, nil
		}
		select {
		case chunk, ok := <-t.chunks:
			if !ok {
				out := t.buf.String()
				t.buf.Reset()
				return out, fmt.Errorf("%w: channel closed", util.ErrTransport)
			}
			t.buf.Write(chunk)
		case <-timer.C:
			out := t.buf.String()
			t.buf.Reset()
			return out, fmt.Errorf("%w: no prompt within %s", util.ErrTimeout, timeout)
		}
	}
}

func (t *shellTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.session.Close()
		err = t.client.Close()
	})
	return err
}
