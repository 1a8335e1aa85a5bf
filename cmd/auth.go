package main

import (
	"context"

	"github.com/desertthunder/vibes/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin fetches the Spotify authorization URL from the backend and opens it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	authURL, err := r.api.AuthURL(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Visit this URL to authorize vibes:\n%s\n", authURL)

	if !cmd.Bool("no-browser") {
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	r.writePlainln("After approving, run: vibes auth callback --code <code>")
	return nil
}

// AuthCallback exchanges the authorization code for an access token and prints it.
// The token is not stored; pass it to playlist commands with --token or VIBES_TOKEN.
func (r *Runner) AuthCallback(ctx context.Context, cmd *cli.Command) error {
	tok, err := r.api.ExchangeCode(ctx, cmd.String("code"))
	if err != nil {
		return err
	}

	r.logger.Info("authorization successful")

	if cmd.Bool("json") {
		return r.writeJSON(tok, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Authorization successful\n")
	r.writePlain("Access token: %s\n", tok.AccessToken)
	r.writePlainln("export VIBES_TOKEN=%s", tok.AccessToken)
	return nil
}
