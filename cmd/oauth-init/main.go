// Command oauth-init runs the one-time OAuth consent flow and saves the
// offline token the backup worker authenticates with.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"github.com/huy7715/money-tracker/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var b []byte
	var err error
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		b = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err = os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			log.Fatalf("read client file: %v", err)
		}
	default:
		log.Fatalf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}

	oauthCfg, err := google.ConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		log.Fatalf("oauth config: %v", err)
	}

	// The OAuth client must list this redirect URI among its authorized
	// redirect URIs.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	codeCh := make(chan string, 1)
	srv := &http.Server{Addr: ":" + redirectPort}
	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		codeCh <- code
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	url := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL to authorize:\n%s\n", url)

	select {
	case code := <-codeCh:
		tok, err := oauthCfg.Exchange(context.Background(), code)
		if err != nil {
			log.Fatalf("token exchange: %v", err)
		}
		outFile := cfg.GoogleOAuthTokenFile
		if outFile == "" {
			outFile = "token.json"
		}
		f, err := os.OpenFile(outFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
		if err != nil {
			log.Fatalf("open token file: %v", err)
		}
		defer f.Close()
		if err := json.NewEncoder(f).Encode(tok); err != nil {
			log.Fatalf("write token: %v", err)
		}
		fmt.Printf("Saved token to %s\n", outFile)
	case <-time.After(5 * time.Minute):
		log.Fatalf("authorization timed out")
	case <-signalChan():
		log.Fatalf("interrupted")
	}
}

func signalChan() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	return c
}
