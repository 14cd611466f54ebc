package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/takoeight0821/kaleido/driver"
	"github.com/takoeight0821/kaleido/interp"
)

var (
	inputPath string
	emitPath  string
)

var rootCmd = &cobra.Command{
	Use:   "kaleido",
	Short: "An interactive compiler for the kaleido language",
	Long: `kaleido reads statements (definitions, externs, and expressions),
compiles them, and evaluates bare expressions immediately. Without
--input it runs as a prompt.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		session := driver.NewSession(interp.New())

		var err error
		if inputPath == "" {
			err = RunPrompt(session)
		} else {
			err = RunFile(session, inputPath)
		}
		if err != nil {
			return err
		}

		if emitPath != "" {
			return emitModule(session, emitPath)
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file path")
	rootCmd.Flags().StringVarP(&emitPath, "emit", "o", "", "write the compiled module to this path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

var history = filepath.Join(xdg.DataHome, "kaleido", ".kaleido_history")

func RunPrompt(session *driver.Session) error {
	line := liner.NewLiner()
	defer func() {
		if err := os.MkdirAll(filepath.Dir(history), os.ModePerm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if f, err := os.Create(history); err == nil {
			defer f.Close()
			if _, err := line.WriteHistory(f); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		line.Close()
	}()

	if f, err := os.Open(history); err == nil {
		defer f.Close()
		if _, err := line.ReadHistory(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)
		results, err := session.RunSource(input)
		if err != nil {
			reportError(err)
		}
		for _, result := range results {
			fmt.Println(result)
		}
	}
}

func RunFile(session *driver.Session, path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	results, err := session.RunSource(string(bytes))
	for _, result := range results {
		if result.Kind == driver.Evaluated {
			fmt.Println(result)
		}
	}

	return err
}

func emitModule(session *driver.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return session.WriteModule(f)
}

func reportError(err error) {
	if errs, ok := err.(interface{ Unwrap() []error }); ok {
		for _, err := range errs.Unwrap() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
