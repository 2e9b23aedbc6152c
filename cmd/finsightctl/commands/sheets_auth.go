package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// authorizedUser is the credentials document Google client libraries accept
// for a user identity. The sheets ledger reads it through
// GOOGLE_CREDENTIALS_FILE like a service-account key.
type authorizedUser struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

func newSheetsAuthCmd() *cobra.Command {
	var (
		clientFile string
		out        string
		port       int
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize the sheets ledger with a Google user account",
		Long: `Runs the OAuth consent flow for a desktop OAuth client and writes an
authorized_user credentials file usable as GOOGLE_CREDENTIALS_FILE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientFile == "" {
				clientFile = os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")
			}
			if clientFile == "" {
				return errors.New("--client-file or GOOGLE_OAUTH_CLIENT_FILE is required")
			}
			data, err := os.ReadFile(clientFile)
			if err != nil {
				return fmt.Errorf("read client file: %w", err)
			}
			conf, err := google.ConfigFromJSON(data, gsheet.SpreadsheetsScope)
			if err != nil {
				return fmt.Errorf("oauth client config: %w", err)
			}
			conf.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			tok, err := authorize(ctx, conf, port, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			if err := writeAuthorizedUser(out, conf, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credentials written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientFile, "client-file", "", "OAuth client JSON downloaded from the Google console")
	cmd.Flags().StringVarP(&out, "out", "o", "credentials.json", "where to write the authorized_user credentials")
	cmd.Flags().IntVar(&port, "port", 8085, "local port for the OAuth redirect")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for consent")
	return cmd
}

// authorize serves the redirect on localhost:port, hands the consent URL to
// show and exchanges the returned code for a token.
func authorize(ctx context.Context, conf *oauth2.Config, port int, show func(string)) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen for redirect: %w", err)
	}
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, codes, errs))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	show(conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case code := <-codes:
		tok, err := conf.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}

// callbackHandler accepts a single redirect carrying the expected state and
// forwards either its code or its error.
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization failed: "+e, http.StatusBadRequest)
			send(errs, fmt.Errorf("authorization denied: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "FinSight is authorized. You may close this window.")
		send(codes, code)
	})
}

func send[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func writeAuthorizedUser(path string, conf *oauth2.Config, tok *oauth2.Token) error {
	if tok.RefreshToken == "" {
		return errors.New("no refresh token returned; revoke the app's access and retry")
	}
	data, err := json.MarshalIndent(authorizedUser{
		Type:         "authorized_user",
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		RefreshToken: tok.RefreshToken,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
