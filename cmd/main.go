package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storybook/internal/cli/scheme/colours"
	"storybook/internal/config"
	"storybook/internal/story/nest"
)

func main() {
	var cfgFile string

	app := nest.NewStoryNest()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Close()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! Sweet dreams! 🌙"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "storybook",
		Short: "📖 Picture books that read themselves aloud",
		Long: `
┌─────────────────────────────────────┐
│  📚 Welcome to Storybook! 📖        │
│  Turn the page, hear the story      │
│  Read aloud for kids 👶✨           │
└─────────────────────────────────────┘

Storybook opens paginated stories in your terminal. Every page is read
aloud as soon as you turn to it, and turning the page silences the last
one. Perfect for bedtime! 🌙
		`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.storybook/storybook.yaml)")

	// Configuration management with Viper
	cobra.OnInitialize(func() {
		if err := config.Init(cfgFile); err != nil {
			colours.Error.Printf("❌ Error: %v\n", err)
			os.Exit(1)
		}
		app.Configure(config.Load())
	})

	app.AddCommands(rootCmd)

	err := rootCmd.Execute()
	app.Close()
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}
