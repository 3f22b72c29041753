package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// printStatus writes a plain-text report of the tracker's HTTP API.
func printStatus(ctx context.Context, w io.Writer, fetcher tracker.StatusFetcher) error {
	health, err := fetcher.Health(ctx)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	status, err := fetcher.FetchStatus(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	peers, err := fetcher.FetchPeers(ctx)
	if fatal(err) {
		return fmt.Errorf("peers: %w", err)
	}
	torrents, err := fetcher.FetchTorrents(ctx)
	if fatal(err) {
		return fmt.Errorf("torrents: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Health:\t%s\n", health.Status)
	fmt.Fprintf(tw, "Status:\t%s\n", status.Status)
	fmt.Fprintf(tw, "Connected clients:\t%d\n", status.TotalConnectedClients)
	if t := status.ParsedServerTime(); !t.IsZero() {
		fmt.Fprintf(tw, "Server time:\t%s\n", t.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(tw, "\nPeers (%d)\n", peers.Count)
	if len(peers.Peers) > 0 {
		fmt.Fprintln(tw, "PEER ID\tADDRESS\tTORRENTS")
	}
	for _, p := range peers.Peers {
		fmt.Fprintf(tw, "%s\t%s:%d\t%d\n", p.PeerID, p.IP, p.Port, len(p.ActiveTorrents))
	}

	fmt.Fprintf(tw, "\nTorrents (%d)\n", torrents.Count)
	if len(torrents.Torrents) > 0 {
		fmt.Fprintln(tw, "FILENAME\tSIZE\tINFO HASH")
	}
	for _, r := range torrents.Torrents {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Filename, r.Size, r.InfoHash)
	}
	return tw.Flush()
}

// fatal reports whether err prevents printing. Malformed records still
// decode with defaults and are printed.
func fatal(err error) bool {
	var malformed *wire.MalformedEventError
	return err != nil && !errors.As(err, &malformed)
}
