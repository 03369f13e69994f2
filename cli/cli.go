package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/blendpipe/blendpipe/config"
	"github.com/blendpipe/blendpipe/logger"
)

var (
	configPath  string
	plainOutput bool
	archiveFlag bool
	openFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "blendpipe",
	Short: "Turn text prompts into rendered 3D scenes",
	Long: "blendpipe plans, generates and validates Blender Python scripts from a natural\n" +
		"language prompt, then renders the scene headlessly to a PNG.",
}

var genCmd = &cobra.Command{
	Use:   `gen "<prompt>"`,
	Short: "Generate and render a 3D scene from a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runGen,
}

func init() {
	genCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a config file")
	genCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain line output instead of the TUI")
	genCmd.Flags().BoolVar(&archiveFlag, "archive", false, "bundle session artifacts into a zip")
	genCmd.Flags().BoolVar(&openFlag, "open", false, "open the rendered image when done")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("archive") {
		cfg.ArchiveSession = archiveFlag
	}
	if cmd.Flags().Changed("open") {
		cfg.OpenRender = openFlag
	}

	l := logger.GetLogger()
	publisher := NewCliStepPublisher(l)

	engine, err := NewEngine(cfg, publisher, l, 1)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Shutdown(5 * time.Second)

	if plainOutput {
		return runPlain(engine, publisher, args[0])
	}

	model := newGenerateModel(args[0], engine, publisher)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	if m, ok := final.(generateModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
