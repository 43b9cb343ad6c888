package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roweshkalloe/qualogy-ai-connect/client"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var (
	gatewayURL   string
	tokenFlag    string
	outputFormat string
	nestingFlag  string
	timeoutFlag  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "communityctl",
	Short: "Command line client of the community api gateway",
	Long: `communityctl reads the home feed, comment threads and notifications of the
community app and performs the same writes the web client does.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", envOr("COMMUNITY_GATEWAY", "http://localhost:8080"),
		"Base url of the api gateway")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", os.Getenv("COMMUNITY_TOKEN"),
		"Bearer token (default: the one saved by login)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "human", "Output format (json, human)")
	rootCmd.PersistentFlags().StringVar(&nestingFlag, "nesting", "", "Comment nesting to render: flatten or nested (default: as served)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "Timeout of a single command")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "communityctl", "token"), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken() string {
	if tokenFlag != "" {
		return tokenFlag
	}
	path, err := tokenPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func newClient() *client.Client {
	return client.New(gatewayURL, client.WithToken(loadToken()))
}

func newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeoutFlag)
}

// render writes v as json, or calls human when the format is human.
func render(w io.Writer, v any, human func(io.Writer)) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "human", "":
		human(w)
		return nil
	}
	return fmt.Errorf("unknown format %q", outputFormat)
}

func notice(w io.Writer, msg string) {
	if msg != "" {
		fmt.Fprintln(w, "!", msg)
	}
}

// rendered re-nests a served tree when --nesting asks for another policy.
func rendered(tree *commentTree.Tree) (*commentTree.Tree, error) {
	if nestingFlag == "" {
		return tree, nil
	}
	policy, err := commentTree.ParsePolicy(nestingFlag)
	if err != nil {
		return nil, err
	}
	if policy == tree.Policy {
		return tree, nil
	}
	return commentTree.Build(flatten(tree), policy), nil
}

func flatten(tree *commentTree.Tree) []models.Comment {
	var out []models.Comment
	tree.Walk(func(n *commentTree.Node, _ int) {
		out = append(out, n.Comment)
	})
	return out
}
