// Package cli provides the cobra command tree for the folio binary.
// Commands talk to the core only through driving ports; the binary's main
// package supplies a Bootstrap that builds them from configuration.
package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Need says how much of the application a command requires.
// Levels are cumulative.
type Need int

const (
	// NeedNothing runs without any services.
	NeedNothing Need = iota
	// NeedSettings requires only the settings service.
	NeedSettings
	// NeedStore adds the version store and chapter service.
	NeedStore
	// NeedSearch adds the embedding service and vector index.
	NeedSearch
	// NeedRevision adds the LLM agents, acquirer and decision gate.
	NeedRevision
)

// needAnnotation is the cobra annotation key carrying a command's Need.
const needAnnotation = "folio.need"

// Services holds the driving ports the commands call.
type Services struct {
	Chapters driving.ChapterService
	Revision driving.RevisionService
	Search   driving.SearchService
	Settings driving.SettingsService
}

// Options are the global flags handed to the Bootstrap.
type Options struct {
	// ConfigDir overrides ~/.folio.
	ConfigDir string

	// Need is the requirement of the command being run.
	Need Need

	// Gate is the decision gate chosen by --gate. Set only for NeedRevision.
	Gate driven.DecisionGate
}

// Bootstrap builds services for a command. The returned func releases them.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrap
	cleanup   func()

	chapterService  driving.ChapterService
	revisionService driving.RevisionService
	searchService   driving.SearchService
	settingsService driving.SettingsService

	// activeGate is the gate handed to the bootstrap, kept for end-of-run reports.
	activeGate driven.DecisionGate

	verboseFlag   bool
	configDirFlag string
	gateFlag      string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Revise chapters with an LLM, keeping every version",
	Long: `Folio turns source chapters into revised prose through repeated
generate, critique and decide cycles. Every intermediate text is kept as a
version, so a chapter's lineage can be traced from the raw source to the
final text and searched by meaning.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.folio)")
	rootCmd.PersistentFlags().StringVar(&gateFlag, "gate", "auto",
		"decision gate: tui, console, accept, script:<path> or auto")
}

// SetVersion sets the version reported by 'folio version'.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services on demand.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly, bypassing the Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	chapterService = s.Chapters
	revisionService = s.Revision
	searchService = s.Search
	settingsService = s.Settings
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	defer release()
	return rootCmd.ExecuteContext(ctx)
}

// requires annotates cmd with its Need.
func requires(cmd *cobra.Command, need Need) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needAnnotation] = strconv.Itoa(int(need))
}

func needOf(cmd *cobra.Command) Need {
	n, err := strconv.Atoi(cmd.Annotations[needAnnotation])
	if err != nil {
		return NeedNothing
	}
	return Need(n)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	loadEnv(configDirFlag)

	need := needOf(cmd)
	if bootstrap == nil || need == NeedNothing {
		return nil
	}

	opts := Options{ConfigDir: configDirFlag, Need: need}
	if need >= NeedRevision {
		g, err := selectGate(gateFlag, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		opts.Gate = g
		activeGate = g
	}

	services, done, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return err
	}
	cleanup = done
	SetServices(services)
	return nil
}

func release() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// loadEnv reads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadEnv(configDir string) {
	paths := []string{".env"}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, ".env"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".folio", ".env"))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("reading %s: %v", p, err)
		}
	}
}
