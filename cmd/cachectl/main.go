package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/satchelfiles/satchel/pkg/browse"
	"github.com/satchelfiles/satchel/pkg/config"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	client := &client{
		base: fmt.Sprintf("http://127.0.0.1:%d", cfg.ServerPort),
		http: &http.Client{Timeout: 10 * time.Second},
	}

	app := &cli.App{
		Name:        "cachectl",
		Usage:       "CLI to interact with a running satchel server's caches",
		Description: "CLI to interact with a running satchel server's caches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "base address of the satchel server",
				Value:       client.base,
				Destination: &client.base,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "print listing and thumbnail cache statistics",
				Action: func(c *cli.Context) error {
					stats := browse.StatsResponse{}
					if err := client.get("/browse/stats", &stats); err != nil {
						return err
					}

					fmt.Printf("Listings:   %d directories, %d entries, ~%d bytes\n",
						stats.Listings.DirectoryCount, stats.Listings.EntryCount, stats.Listings.ApproximateBytes)
					fmt.Printf("Thumbnails: %d cached, ~%d bytes, %d queued, %d in flight\n",
						stats.Thumbnails.ThumbnailCount, stats.Thumbnails.ApproximateBytes,
						stats.Thumbnails.QueueLength, stats.Thumbnails.InFlight)
					return nil
				},
			},
			{
				Name:  "cleanup",
				Usage: "drop listings older than the configured TTL",
				Action: func(c *cli.Context) error {
					result := map[string]int{}
					if err := client.post("/browse/cleanup", nil, &result); err != nil {
						return err
					}

					fmt.Printf("Dropped %d stale listings\n", result["dropped_listings"])
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "drop every cached listing and thumbnail",
				Action: func(c *cli.Context) error {
					if err := client.post("/browse/clear", nil, nil); err != nil {
						return err
					}

					fmt.Printf("Caches cleared\n")
					return nil
				},
			},
			{
				Name:      "invalidate",
				Usage:     "drop one directory's cached listing",
				ArgsUsage: "<dir>",
				Action: func(c *cli.Context) error {
					dir := c.Args().First()
					if dir == "" {
						return errors.New("a directory argument is required")
					}

					payload := browse.InvalidatePayload{Dir: dir}
					if err := client.post("/browse/invalidate", payload, nil); err != nil {
						return err
					}

					fmt.Printf("Invalidated %s\n", dir)
					return nil
				},
			},
			{
				Name:  "refresh",
				Usage: "force a synchronous refresh of one directory",
				Action: func(c *cli.Context) error {
					dir := c.Args().First()
					if dir == "" {
						return errors.New("a directory argument is required")
					}

					listing := browse.ListResponse{}
					payload := browse.RefreshPayload{Dir: dir}
					if err := client.post("/browse/refresh", payload, &listing); err != nil {
						return err
					}

					fmt.Printf("Refreshed %s (%d entries)\n", listing.Dir, len(listing.Entries))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("cachectl error")
	}
}

type client struct {
	base string
	http *http.Client
}

func (cl *client) get(path string, out interface{}) error {
	resp, err := cl.http.Get(cl.base + path)
	if err != nil {
		return errors.WithStack(err)
	}
	return cl.decode(resp, out)
}

func (cl *client) post(path string, payload interface{}, out interface{}) error {
	body := &bytes.Buffer{}
	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return errors.WithStack(err)
		}
	}

	resp, err := cl.http.Post(cl.base+path, "application/json", body)
	if err != nil {
		return errors.WithStack(err)
	}
	return cl.decode(resp, out)
}

func (cl *client) decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return errors.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}

	return errors.WithStack(json.NewDecoder(resp.Body).Decode(out))
}
