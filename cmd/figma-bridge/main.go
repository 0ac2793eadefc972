// Figma Bridge importer
//
// Reconciles a Figma document into a generated scene tree, preserving
// manual customizations from previous imports.
//
// Sub-commands:
//
//	figma-bridge import [flags]   Run one import (default)
//	figma-bridge watch [flags]    Re-import on an interval
//	figma-bridge login            Store the Figma access token
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/config"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/images"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/importer"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/merge"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/metrics"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/snapshot"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			cmdLogin()
			return
		case "watch":
			os.Args = append(os.Args[:1], os.Args[2:]...)
			cmdImport(true)
			return
		case "import":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}
	cmdImport(false)
}

func cmdImport(watch bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	fileKey := flag.String("file-key", cfg.FileKey, "Figma file key")
	token := flag.String("token", "", "Figma access token (default: FIGMA_TOKEN or stored login)")
	localFile := flag.String("file", "", "Import from a local file API response instead of the API")
	pages := flag.String("pages", strings.Join(cfg.Pages, ","), "Comma-separated page ids to import (empty = all)")
	centerPivot := flag.Bool("center-pivot", cfg.CenterPivot, "Recenter pivots to (0.5, 0.5)")
	noImages := flag.Bool("no-images", false, "Skip server rendering and image downloads")
	interval := flag.Duration("interval", 60*time.Second, "Re-import interval (watch mode)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	flag.Parse()

	if err := logging.Init(logging.Config{Level: *logLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "logging init error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if *token == "" {
		*token = cfg.Token
	}
	if *token == "" {
		*token = storedToken()
	}

	if *localFile == "" && *fileKey == "" {
		fmt.Fprintln(os.Stderr, "Error: -file-key (or FIGMA_FILE_KEY) is required unless -file is given")
		flag.Usage()
		os.Exit(1)
	}
	if *localFile == "" && *token == "" {
		fmt.Fprintln(os.Stderr, "Error: no Figma token; pass -token, set FIGMA_TOKEN, or run figma-bridge login")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			logging.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logging.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	store, err := snapshot.New(ctx, snapshot.Config{
		Backend:     cfg.SnapshotBackend,
		Path:        cfg.SnapshotPath,
		S3Endpoint:  cfg.S3Endpoint,
		S3Bucket:    cfg.S3Bucket,
		S3Prefix:    cfg.S3Prefix,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3Region:    cfg.S3Region,
	})
	if err != nil {
		logging.Fatal("snapshot store init failed", zap.Error(err))
	}
	defer store.Close()

	imp := &importer.Importer{
		Snapshots:    store,
		FileKey:      *fileKey,
		Pages:        splitList(*pages),
		CenterPivot:  *centerPivot,
		RenderScale:  cfg.RenderScale,
		RenderFormat: cfg.RenderFormat,
	}

	if *localFile != "" {
		imp.Source = localSource(*localFile)
	} else {
		client := figma.NewClient(figma.ClientConfig{
			BaseURL: cfg.APIBaseURL,
			Token:   *token,
		})
		imp.Source = client
		if !*noImages {
			cache, err := images.New(cfg.ImageCacheDir, cfg.ImageCacheMaxSize)
			if err != nil {
				logging.Fatal("image cache init failed", zap.Error(err))
			}
			imp.Images = client
			imp.Cache = cache
		}
	}

	runOnce := func() {
		result, err := imp.Run(ctx)
		if err != nil {
			logging.Error("import failed", zap.Error(err))
			if !watch {
				os.Exit(1)
			}
			return
		}
		printSummary(result)
	}

	runOnce()
	if !watch {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Info("shutting down")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// localSource reads a file API response from disk.
type localSource string

func (p localSource) GetFile(_ context.Context, _ string) (*figma.File, error) {
	return figma.LoadFile(string(p))
}

func printSummary(result *importer.Result) {
	fmt.Printf("%s: %d screens, %d components\n",
		result.FileName, len(result.Screens), len(result.Components))
	for slot, plan := range result.Plans {
		fmt.Printf("  %-40s create=%d update=%d preserve=%d remove=%d\n",
			slot,
			plan.Count(merge.ActionCreate),
			plan.Count(merge.ActionUpdate),
			plan.Count(merge.ActionPreserve),
			plan.Count(merge.ActionRemove))
	}
}

// cmdLogin prompts for a Figma access token and stores it for later
// runs.
func cmdLogin() {
	fmt.Print("Figma access token: ")
	var token string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read token: %v\n", err)
			os.Exit(1)
		}
		token = string(data)
	} else {
		fmt.Fscanln(os.Stdin, &token)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		fmt.Fprintln(os.Stderr, "empty token, nothing stored")
		os.Exit(1)
	}

	path := tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "store token: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "store token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("token stored in %s\n", path)
}

func tokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".figma-bridge", "token")
}

func storedToken() string {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
