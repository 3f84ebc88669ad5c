package buildkit

import (
	"fmt"
	"io"

	bkclient "github.com/moby/buildkit/client"
	digest "github.com/opencontainers/go-digest"

	"github.com/schmitthub/slipway/internal/logger"
)

// drainProgress reads from the BuildKit status channel until it is closed.
// Vertex names and build log lines are forwarded to out when set, and to
// zerolog at debug level either way. Error-state vertexes are always logged.
func drainProgress(ch chan *bkclient.SolveStatus, out io.Writer) {
	logged := make(map[digest.Digest]bool)
	for status := range ch {
		for _, v := range status.Vertexes {
			if v.Error != "" {
				name := v.Name
				if name == "" {
					name = v.Digest.String()
				}
				logger.Error().Str("vertex", name).Str("error", v.Error).Msg("buildkit vertex error")
				continue
			}
			// Log each vertex once when it starts (or is cached). BuildKit sends
			// full-state snapshots, so we deduplicate by digest and gate on
			// Started/Completed to emit lines in execution order.
			if v.Name != "" && !logged[v.Digest] && (v.Started != nil || v.Completed != nil) {
				logged[v.Digest] = true
				if out != nil {
					fmt.Fprintf(out, " => %s\n", v.Name)
				}
				logger.Debug().Str("vertex", v.Name).Msg("buildkit")
			}
		}
		for _, l := range status.Logs {
			if out != nil {
				out.Write(l.Data)
			}
			logger.Debug().Str("vertex", l.Vertex.String()).Bytes("data", l.Data).Msg("buildkit log")
		}
	}
}
