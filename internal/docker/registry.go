package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"

	"github.com/schmitthub/slipway/internal/logger"
)

// Login authenticates against a registry through the daemon and returns the
// daemon's status message. An empty ServerAddress means Docker Hub.
func (c *Client) Login(ctx context.Context, auth registry.AuthConfig) (string, error) {
	resp, err := c.APIClient.RegistryLogin(ctx, auth)
	if err != nil {
		return "", ErrRegistryLoginFailed(auth.ServerAddress, err)
	}
	logger.Debug().
		Str("registry", auth.ServerAddress).
		Str("username", auth.Username).
		Msg("registry login succeeded")
	return resp.Status, nil
}

// Push uploads ref to its registry and returns the content digest the
// registry reported, or an empty string when the stream carried none.
func (c *Client) Push(ctx context.Context, ref string, auth registry.AuthConfig) (string, error) {
	encoded, err := registry.EncodeAuthConfig(auth)
	if err != nil {
		return "", ErrImagePushFailed(ref, err)
	}

	logger.Debug().Str("ref", ref).Msg("pushing image")

	body, err := c.APIClient.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return "", ErrImagePushFailed(ref, err)
	}
	defer body.Close()

	digest, err := c.processPushOutput(body)
	if err != nil {
		return "", ErrImagePushFailed(ref, err)
	}
	return digest, nil
}

// pushEvent represents a single JSON event from the push output stream.
type pushEvent struct {
	Status      string `json:"status,omitempty"`
	ID          string `json:"id,omitempty"`
	Progress    string `json:"progress,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorDetail struct {
		Message string `json:"message,omitempty"`
	} `json:"errorDetail"`
	Aux json.RawMessage `json:"aux,omitempty"`
}

// pushResult mirrors the aux payload emitted once a push completes.
type pushResult struct {
	Tag    string `json:"Tag"`
	Digest string `json:"Digest"`
	Size   int    `json:"Size"`
}

func (c *Client) processPushOutput(reader io.Reader) (string, error) {
	scanner := bufio.NewScanner(reader)
	var digest string
	var parseErrors int

	for scanner.Scan() {
		var event pushEvent

		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			parseErrors++
			logger.Debug().
				Err(err).
				Str("raw", string(scanner.Bytes())).
				Msg("failed to parse push output event")
			if parseErrors > 10 {
				return "", fmt.Errorf("push output stream appears corrupted: %d consecutive parse failures", parseErrors)
			}
			continue
		}
		parseErrors = 0

		if event.Error != "" {
			return "", fmt.Errorf("push error: %s", event.Error)
		}

		if event.ErrorDetail.Message != "" {
			return "", fmt.Errorf("push error: %s", event.ErrorDetail.Message)
		}

		if len(event.Aux) > 0 {
			var result pushResult
			if err := json.Unmarshal(event.Aux, &result); err == nil && result.Digest != "" {
				digest = result.Digest
			}
		}

		// Skip per-layer progress updates; log status transitions only.
		if event.Status != "" && event.Progress == "" {
			logger.Debug().Str("id", event.ID).Msg(event.Status)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading push output: %w", err)
	}

	logger.Debug().Msg("image push complete")
	return digest, nil
}
