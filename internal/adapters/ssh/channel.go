// Package ssh runs deploy documents on hosts over SSH. A document is an
// executable script in a fixed directory on the host; parameters are
// passed as environment variables and the script runs detached.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"plugfolio-deployer/internal/domain"
)

const (
	defaultPort  = "22"
	statusInProgress = "InProgress"
)

var (
	envName      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	documentName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

type execFunc func(ctx context.Context, host, command string) error

type CommandChannel struct {
	config    *ssh.ClientConfig
	scriptDir string
	exec      execFunc
}

func NewCommandChannel(user, keyPath, knownHostsPath, scriptDir string) (*CommandChannel, error) {
	if knownHostsPath == "" {
		return nil, &domain.ConfigurationMissingError{Key: "SSH_KNOWN_HOSTS"}
	}
	if keyPath == "" {
		return nil, &domain.ConfigurationMissingError{Key: "SSH_KEY_PATH"}
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}

	hostKeys, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}

	c := &CommandChannel{
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: hostKeys,
			Timeout:         10 * time.Second,
		},
		scriptDir: scriptDir,
	}
	c.exec = c.run
	return c, nil
}

func (c *CommandChannel) Dispatch(ctx context.Context, hostIDs []string, document string, params map[string][]string) (*domain.RemoteCommandHandle, error) {
	commandID := uuid.NewString()

	command, err := RenderCommand(c.scriptDir, document, commandID, params)
	if err != nil {
		return nil, err
	}

	requestedAt := time.Now()
	for _, host := range hostIDs {
		if err := c.exec(ctx, host, command); err != nil {
			return nil, fmt.Errorf("ssh %s: %w", host, err)
		}
	}

	handle := &domain.RemoteCommandHandle{
		CommandID:    commandID,
		DocumentName: document,
		HostIDs:      append([]string(nil), hostIDs...),
		Status:       statusInProgress,
		Parameters:   params,
		RequestedAt:  domain.FormatTimestamp(requestedAt),
	}
	if deadline, ok := ctx.Deadline(); ok {
		handle.ExpiresAfter = domain.FormatTimestamp(deadline)
	}

	return handle, nil
}

// RenderCommand builds the shell line that starts document detached
// with params exported. Output goes to /tmp/plugfolio-<commandID>.log.
func RenderCommand(scriptDir, document, commandID string, params map[string][]string) (string, error) {
	if !documentName.MatchString(document) {
		return "", fmt.Errorf("invalid document name %q", document)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		if !envName.MatchString(name) {
			return "", fmt.Errorf("invalid parameter name %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(shellQuote(strings.Join(params[name], ",")))
		b.WriteByte(' ')
	}

	script := strings.TrimSuffix(scriptDir, "/") + "/" + document
	logFile := "/tmp/plugfolio-" + commandID + ".log"

	fmt.Fprintf(&b, "nohup %s > %s 2>&1 < /dev/null &", shellQuote(script), shellQuote(logFile))
	return b.String(), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (c *CommandChannel) run(ctx context.Context, host, command string) error {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, defaultPort)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, c.config)
	if err != nil {
		conn.Close()
		return err
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("remote exited with status %d", exitErr.ExitStatus())
		}
		return err
	}
	return nil
}
