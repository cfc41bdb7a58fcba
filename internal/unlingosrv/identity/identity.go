// Package identity talks to the external identity provider and the
// analytics sink. Both calls are fire-and-forget: project lifecycle never
// blocks on them and their failures are logged, not surfaced.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/unlingosrv/config"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

const (
	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

func post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Content-Type", "application/json")
		rsp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer rsp.Body.Close()
		if rsp.StatusCode >= 500 {
			return errStatus(rsp.StatusCode)
		}
		if rsp.StatusCode >= 400 {
			return retry.Unrecoverable(errStatus(rsp.StatusCode))
		}
		return nil
	},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.Context(ctx),
	)
}

type statusError int

func errStatus(code int) error { return statusError(code) }

func (e statusError) Error() string {
	return http.StatusText(int(e))
}

// RegisterProject provisions a machine identity for a new project. Runs in
// the background; the project keeps its identity ref regardless of outcome.
func RegisterProject(identityRef, projectName, orgID string) {
	endpoint := config.Config().IdentityEndpoint
	if endpoint == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := post(ctx, endpoint+"/identities", map[string]string{
			"ref":     identityRef,
			"project": projectName,
			"org":     orgID,
		})
		if err != nil {
			log.Error().Err(err).Str("identity_ref", identityRef).Msg("failed to register project identity")
		}
	}()
}

// RevokeProject retires a project's machine identity in the background.
func RevokeProject(identityRef string) {
	endpoint := config.Config().IdentityEndpoint
	if endpoint == "" || identityRef == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := post(ctx, endpoint+"/identities/"+identityRef+"/revoke", struct{}{})
		if err != nil {
			log.Error().Err(err).Str("identity_ref", identityRef).Msg("failed to revoke project identity")
		}
	}()
}

// Track emits an analytics event in the background.
func Track(orgID, event string, properties map[string]any) {
	endpoint := config.Config().AnalyticsEndpoint
	if endpoint == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := post(ctx, endpoint+"/events", map[string]any{
			"org":        orgID,
			"event":      event,
			"properties": properties,
			"ts":         time.Now().UTC(),
		})
		if err != nil {
			log.Debug().Err(err).Str("event", event).Msg("failed to emit analytics event")
		}
	}()
}
