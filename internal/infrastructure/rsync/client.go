// Package rsync is the remote-copy transport used by the replica syncer. It
// shells out to rsync and ssh with a dedicated key in batch mode, so a
// missing or misconfigured host surfaces as an ordinary command failure the
// syncer can retry.
package rsync

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"
)

// Client pushes files to replica hosts over rsync/ssh.
type Client struct {
	keyPath string
	user    string
	logger  *log.Logger
}

// NewClient creates the transport. keyPath is the ssh identity used for
// unattended authentication; user is the remote account, empty for the
// current one.
func NewClient(keyPath, user string, logger *log.Logger) *Client {
	return &Client{keyPath: keyPath, user: user, logger: logger}
}

func (c *Client) sshCommand() string {
	parts := []string{"ssh", "-o", "BatchMode=yes", "-o", "StrictHostKeyChecking=accept-new"}
	if c.keyPath != "" {
		parts = append(parts, "-i", c.keyPath)
	}
	return strings.Join(parts, " ")
}

func (c *Client) target(host string) string {
	if c.user != "" {
		return c.user + "@" + host
	}
	return host
}

// Push uploads the named files from dir into remoteDir on host.
func (c *Client) Push(ctx context.Context, host, dir string, files []string, remoteDir string) error {
	args := []string{"--partial", "--times", "-e", c.sshCommand()}
	for _, name := range files {
		args = append(args, filepath.Join(dir, name))
	}
	args = append(args, c.target(host)+":"+remoteDir+"/")
	return c.run(ctx, "rsync", args...)
}

// Remove deletes one remote path on host.
func (c *Client) Remove(ctx context.Context, host, remotePath string) error {
	args := []string{"-o", "BatchMode=yes", "-o", "StrictHostKeyChecking=accept-new"}
	if c.keyPath != "" {
		args = append(args, "-i", c.keyPath)
	}
	args = append(args, c.target(host), "rm", "-f", "--", remotePath)
	return c.run(ctx, "ssh", args...)
}

func (c *Client) run(ctx context.Context, name string, args ...string) error {
	c.logger.Printf("run %s %s", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
