package renderd

import (
	"context"
	"time"

	"github.com/venkmine/proxx/internal/core/process"
)

// Daemon implements process.Daemon for a locally managed renderd instance.
type Daemon struct {
	binary  string
	dataDir string
	listen  string
	secret  string
	client  *Client
}

func NewDaemon(binary, dataDir, listen, secret string, client *Client) *Daemon {
	return &Daemon{
		binary:  binary,
		dataDir: dataDir,
		listen:  listen,
		secret:  secret,
		client:  client,
	}
}

func (d *Daemon) Name() string { return "renderd" }

func (d *Daemon) Command() (string, []string) {
	args := []string{
		"--rpc-listen=" + d.listen,
		"--data-dir=" + d.dataDir,
		"--log-format=json",
	}
	if d.secret != "" {
		args = append(args, "--rpc-secret="+d.secret)
	}
	return d.binary, args
}

func (d *Daemon) ReadyCheck() process.ReadyProbe {
	return process.ReadyProbe{
		Check: func(ctx context.Context) bool {
			_, err := d.client.Version(ctx)
			return err == nil
		},
		Interval: 200 * time.Millisecond,
		Timeout:  10 * time.Second,
	}
}

func (d *Daemon) Healthy(ctx context.Context) bool {
	_, err := d.client.Version(ctx)
	return err == nil
}
